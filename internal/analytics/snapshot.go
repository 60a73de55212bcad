// Package analytics derives progress counts and percentages from mastery
// state. Snapshots are recomputed on read and never persisted.
package analytics

import (
	"math"

	"github.com/knowgraph/knowgraph/internal/mastery"
)

// Bucket is the count and rounded percentage for one mastery state.
type Bucket struct {
	State   mastery.MasteryState `json:"state"`
	Count   int                  `json:"count"`
	Percent int                  `json:"percent"`
}

// Snapshot summarizes a state map.
type Snapshot struct {
	Total   int      `json:"total"`
	Buckets []Bucket `json:"buckets"`
}

// ComputeSnapshot counts capsules per state. Percentages are rounded
// half away from zero; with zero capsules every bucket is 0/0%.
func ComputeSnapshot(states map[string]mastery.MasteryState) Snapshot {
	counts := make(map[mastery.MasteryState]int, 4)
	for _, st := range states {
		counts[st]++
	}
	total := len(states)

	snap := Snapshot{Total: total}
	for _, st := range mastery.AllStates() {
		snap.Buckets = append(snap.Buckets, Bucket{
			State:   st,
			Count:   counts[st],
			Percent: percent(counts[st], total),
		})
	}
	return snap
}

func percent(count, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

// Bucket returns the bucket for a state.
func (s Snapshot) Bucket(st mastery.MasteryState) Bucket {
	for _, b := range s.Buckets {
		if b.State == st {
			return b
		}
	}
	return Bucket{State: st}
}

// Count returns the number of capsules in a state.
func (s Snapshot) Count(st mastery.MasteryState) int {
	return s.Bucket(st).Count
}

// Percent returns the rounded percentage of capsules in a state.
func (s Snapshot) Percent(st mastery.MasteryState) int {
	return s.Bucket(st).Percent
}

// MasteredRatio returns mastered and total, for "n/total mastered" headers.
func (s Snapshot) MasteredRatio() (int, int) {
	return s.Count(mastery.StateMastered), s.Total
}
