package session

import (
	"github.com/saviobatista/flight-recorder/internal/types"
)

const (
	// MaxTrackPoints is the most GPS points a session holds
	MaxTrackPoints = 500
	// RecentTrackPoints is how many of the newest points survive compaction untouched
	RecentTrackPoints = 100
)

// CompactTrack bounds a GPS track to MaxTrackPoints.
//
// Tracks within the cap are copied as-is. Longer tracks keep the newest
// RecentTrackPoints verbatim and thin the older segment to its even-indexed
// points, repeating the thinning until the whole track fits. Recent history
// stays dense while older history keeps its overall shape. The result never
// aliases points. The second return value reports whether thinning happened.
func CompactTrack(points []types.TrackPoint) ([]types.TrackPoint, bool) {
	if len(points) <= MaxTrackPoints {
		return types.CloneTrack(points), false
	}

	split := len(points) - RecentTrackPoints
	older := points[:split]
	recent := points[split:]

	for len(older)+len(recent) > MaxTrackPoints {
		older = evenIndexed(older)
	}

	compacted := make([]types.TrackPoint, 0, len(older)+len(recent))
	compacted = append(compacted, older...)
	compacted = append(compacted, recent...)
	return types.CloneTrack(compacted), true
}

// evenIndexed returns the points at indices 0, 2, 4, ...
func evenIndexed(points []types.TrackPoint) []types.TrackPoint {
	kept := make([]types.TrackPoint, 0, (len(points)+1)/2)
	for i := 0; i < len(points); i += 2 {
		kept = append(kept, points[i])
	}
	return kept
}
