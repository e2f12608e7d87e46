package censor

import (
	"math"

	"github.com/pkg/errors"
)

// HoldForever disables eviction of tracked entries
const HoldForever = -1

// TrackedEntry is a part followed across video frames
type TrackedEntry struct {
	TrackID int
	Part    *Part
	// Frames since the entry last matched a fresh detection, current frame included
	Age int

	filter *regionFilter
}

// PredictedRegion returns smoothed region of the entry when smoothing is
// enabled and the last confirmed region otherwise.
func (entry *TrackedEntry) PredictedRegion() Region {
	if entry.filter != nil {
		return entry.filter.predicted
	}
	return entry.Part.Region
}

// PartTracker keeps coverage stable across frames: a part that briefly
// disappears from detections keeps being rendered with its last known mask
// until it has been unmatched for more than holdLimit frames.
type PartTracker struct {
	// Main storage, ordered by track id
	entries []*TrackedEntry
	// Max number of frames an entry is kept without a match. HoldForever disables eviction
	holdLimit int
	// Approximate region scale factor. Default 1.0
	tolerance float64
	// Kalman filter time step. Zero disables smoothing
	smoothingDt float64
	nextID      int
	started     bool
	lastEvicted int
}

// TrackerOption configures PartTracker
type TrackerOption func(*PartTracker)

// WithTolerance sets approximate region scale factor used when matching merged and unmerged parts
func WithTolerance(p float64) TrackerOption {
	return func(tracker *PartTracker) {
		tracker.tolerance = p
	}
}

// WithSmoothing enables Kalman smoothing of tracked regions with the given time step
func WithSmoothing(dt float64) TrackerOption {
	return func(tracker *PartTracker) {
		tracker.smoothingDt = dt
	}
}

// WithHoldLimit sets hold limit in frames directly
func WithHoldLimit(frames int) TrackerOption {
	return func(tracker *PartTracker) {
		if frames < 0 {
			tracker.holdLimit = HoldForever
			return
		}
		tracker.holdLimit = frames
	}
}

// NewPartTrackerDefault creates default instance of PartTracker: one frame of hold, tolerance 1.0
func NewPartTrackerDefault() *PartTracker {
	return &PartTracker{
		entries:   make([]*TrackedEntry, 0),
		holdLimit: 1,
		tolerance: 1.0,
		nextID:    1,
	}
}

// NewPartTracker creates new instance of PartTracker. Hold limit is
// holdSeconds × frameRate frames rounded down; negative holdSeconds means hold forever.
func NewPartTracker(holdSeconds, frameRate float64, opts ...TrackerOption) (*PartTracker, error) {
	tracker := NewPartTrackerDefault()
	if holdSeconds < 0 {
		tracker.holdLimit = HoldForever
	} else {
		tracker.holdLimit = maxInt(0, int(math.Floor(holdSeconds*frameRate)))
	}
	for _, opt := range opts {
		opt(tracker)
	}
	if tracker.tolerance <= 0 {
		return nil, errors.Wrapf(ErrInvalidTolerance, "got %f", tracker.tolerance)
	}
	if tracker.smoothingDt < 0 {
		return nil, errors.Errorf("smoothing time step must not be negative, got %f", tracker.smoothingDt)
	}
	return tracker, nil
}

// HoldLimit returns hold limit in frames (HoldForever if eviction is disabled)
func (tracker *PartTracker) HoldLimit() int {
	return tracker.holdLimit
}

// Entries returns tracked entries ordered by track id. Be careful: this is not copy of storage
func (tracker *PartTracker) Entries() []*TrackedEntry {
	return tracker.entries
}

// Len returns number of tracked entries
func (tracker *PartTracker) Len() int {
	return len(tracker.entries)
}

// Evicted returns number of entries evicted during the last Update call
func (tracker *PartTracker) Evicted() int {
	return tracker.lastEvicted
}

// Reset drops every entry, e.g. before the next video
func (tracker *PartTracker) Reset() {
	tracker.entries = make([]*TrackedEntry, 0)
	tracker.started = false
	tracker.lastEvicted = 0
}

// Update matches parts of the current frame (already merged and resolved) to
// tracked entries and returns every held part, sorted by (state, label).
// On error the frame is not aged; call Reset before reusing the tracker.
func (tracker *PartTracker) Update(candidates []*Part) ([]*Part, error) {
	if tracker.smoothingDt > 0 {
		for _, entry := range tracker.entries {
			entry.filter.predict()
		}
	}

	// We need to prevent double update of entries: an entry matched or created
	// during this frame is not available for other candidates
	reserved := make(map[int]struct{}, len(candidates))
	for _, candidate := range candidates {
		var match *TrackedEntry
		if tracker.started {
			match = tracker.bestMatch(candidate, reserved)
		}
		if match != nil {
			// Filter goes first so a failed update leaves the entry as it was
			if match.filter != nil {
				if err := match.filter.update(candidate.Region); err != nil {
					return nil, errors.Wrapf(err, "Can't update track %d", match.TrackID)
				}
			}
			match.Part = candidate
			match.Age = 0
			reserved[match.TrackID] = struct{}{}
			continue
		}
		entry := tracker.register(candidate)
		reserved[entry.TrackID] = struct{}{}
	}
	tracker.started = true

	// Clean up existing data
	tracker.lastEvicted = 0
	kept := tracker.entries[:0]
	for _, entry := range tracker.entries {
		entry.Age++
		// Remove entry if it was not found for a long time
		if tracker.holdLimit != HoldForever && entry.Age > tracker.holdLimit {
			tracker.lastEvicted++
			continue
		}
		kept = append(kept, entry)
	}
	for i := len(kept); i < len(tracker.entries); i++ {
		tracker.entries[i] = nil
	}
	tracker.entries = kept

	parts := make([]*Part, len(tracker.entries))
	for i, entry := range tracker.entries {
		parts[i] = entry.Part
	}
	SortForRender(parts)
	return parts, nil
}

func (tracker *PartTracker) register(part *Part) *TrackedEntry {
	entry := &TrackedEntry{
		TrackID: tracker.nextID,
		Part:    part,
		Age:     0,
	}
	if tracker.smoothingDt > 0 {
		entry.filter = newRegionFilter(part.Region, tracker.smoothingDt)
	}
	tracker.nextID++
	tracker.entries = append(tracker.entries, entry)
	return entry
}

// bestMatch looks for an entry using rules in order of acceptance:
//   - same label and same merged flag;
//   - same merged flag and same persistence group;
//   - different merged flag, same persistence group and candidate within the entry's approximate region.
//
// The youngest qualifying entry of the first rule that has any wins.
func (tracker *PartTracker) bestMatch(candidate *Part, reserved map[int]struct{}) *TrackedEntry {
	rules := []func(entry *TrackedEntry) bool{
		func(entry *TrackedEntry) bool {
			return entry.Part.Label == candidate.Label && entry.Part.IsMerged == candidate.IsMerged
		},
		func(entry *TrackedEntry) bool {
			return candidate.PersistenceGroupID != "" &&
				entry.Part.IsMerged == candidate.IsMerged &&
				entry.Part.PersistenceGroupID == candidate.PersistenceGroupID
		},
		func(entry *TrackedEntry) bool {
			if candidate.PersistenceGroupID == "" ||
				entry.Part.IsMerged == candidate.IsMerged ||
				entry.Part.PersistenceGroupID != candidate.PersistenceGroupID {
				return false
			}
			approx, err := NewApproximateRegion(entry.PredictedRegion(), tracker.tolerance)
			if err != nil {
				return false
			}
			return approx.Within(candidate.Region)
		},
	}
	for _, accept := range rules {
		queue := make(ageHeap, 0)
		for _, entry := range tracker.entries {
			if _, ok := reserved[entry.TrackID]; ok {
				continue
			}
			if !accept(entry) {
				continue
			}
			queue.Push(&matchCandidate{
				entry:    entry,
				distance: euclideanDistance(entry.PredictedRegion().Centre(), candidate.Region.Centre()),
			})
		}
		if queue.Len() > 0 {
			return queue.Pop().entry
		}
	}
	return nil
}
