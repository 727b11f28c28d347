package migrations

// InitialSchema creates the finished flight and recorder statistics tables
var InitialSchema = &Migration{
	ID:   "001_initial_schema",
	Name: "001_initial_schema",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS flights (
			session_id TEXT PRIMARY KEY,
			wing_id TEXT NOT NULL,
			wing_name TEXT NOT NULL DEFAULT '',
			spot_name TEXT,
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ NOT NULL,
			duration_seconds INTEGER NOT NULL,
			start_altitude DOUBLE PRECISION,
			max_altitude DOUBLE PRECISION,
			current_altitude DOUBLE PRECISION,
			total_distance DOUBLE PRECISION NOT NULL,
			max_speed DOUBLE PRECISION NOT NULL,
			max_g_force DOUBLE PRECISION NOT NULL,
			outcome TEXT NOT NULL,
			gps_track JSONB NOT NULL DEFAULT '[]',
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS recorder_stats (
			time TIMESTAMPTZ NOT NULL,
			started_sessions BIGINT NOT NULL,
			ended_sessions BIGINT NOT NULL,
			discarded_sessions BIGINT NOT NULL,
			updates BIGINT NOT NULL,
			compactions BIGINT NOT NULL,
			saves BIGINT NOT NULL,
			failed_saves BIGINT NOT NULL,
			recovered_sessions BIGINT NOT NULL,
			expired_sessions BIGINT NOT NULL,
			corrupt_records BIGINT NOT NULL,
			commands BIGINT NOT NULL,
			failed_commands BIGINT NOT NULL,
			last_save_time TIMESTAMPTZ,
			uptime_seconds BIGINT NOT NULL
		);
	`,
	DownSQL: `
		DROP TABLE IF EXISTS recorder_stats;
		DROP TABLE IF EXISTS flights;
	`,
}
