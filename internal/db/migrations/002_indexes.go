package migrations

// Indexes adds the lookup indexes used by flight history and stats queries
var Indexes = &Migration{
	ID:   "002_indexes",
	Name: "002_indexes",
	UpSQL: `
		CREATE INDEX IF NOT EXISTS idx_flights_wing_id ON flights (wing_id);
		CREATE INDEX IF NOT EXISTS idx_flights_started_at ON flights (started_at DESC);
		CREATE INDEX IF NOT EXISTS idx_recorder_stats_time ON recorder_stats (time DESC);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_recorder_stats_time;
		DROP INDEX IF EXISTS idx_flights_started_at;
		DROP INDEX IF EXISTS idx_flights_wing_id;
	`,
}
