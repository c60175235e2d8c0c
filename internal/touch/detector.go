// Package touch tracks which holds a climber's hands are touching,
// debounced by a continuous-proximity duration.
package touch

import (
	"time"

	"github.com/anvith/gripstream/internal/geometry"
	"github.com/anvith/gripstream/internal/pose"
	"github.com/anvith/gripstream/internal/wall"
)

// Status is a hold's touch status within a session.
type Status string

const (
	// StatusUntouched means the hold has not yet been completed.
	StatusUntouched Status = "untouched"
	// StatusCompleted means the hold was held for the full touch
	// duration. In sticky mode this is terminal for the session.
	StatusCompleted Status = "completed"
)

// Mode selects the hold lifecycle.
type Mode int

const (
	// ModeSticky keeps a completed hold completed for the rest of the
	// session. This is the canonical behavior.
	ModeSticky Mode = iota
	// ModeRetrigger re-arms a completed hold once proximity is lost,
	// so the same hold can fire again later in the session.
	ModeRetrigger
)

// visibilityFloor is the minimum landmark visibility that counts
// toward a hand position.
const visibilityFloor = 0.5

// Config holds the detector tuning.
type Config struct {
	// ProximityThreshold is the hand-to-hold-center distance, in wall
	// units, below which a hand counts as touching.
	ProximityThreshold float64
	// TouchDuration is the continuous-proximity time required before
	// a touch is considered intentional.
	TouchDuration time.Duration
	Mode          Mode
}

// DefaultConfig returns detector settings suitable for a full-size
// wall in SVG units.
func DefaultConfig() Config {
	return Config{
		ProximityThreshold: 50,
		TouchDuration:      time.Second,
		Mode:               ModeSticky,
	}
}

// HoldState is the per-hold touch state owned by the detector.
type HoldState struct {
	HoldID      string
	Type        wall.HoldType
	Status      Status
	CompletedAt *time.Time
}

// Event describes one hold transitioning to completed.
type Event struct {
	HoldID        string
	WallID        string
	Timestamp     time.Time
	TouchDuration time.Duration
}

// Detector runs the untouched→completed state machine across frames.
// It is written to by a single goroutine (the pipeline's inbound
// handler) and needs no locking.
type Detector struct {
	wall   *wall.Wall
	config Config

	states map[string]*HoldState
	// timers tracks continuous proximity starts; an entry is removed
	// the instant proximity is lost.
	timers map[string]time.Time

	// OnTouch, when set, is called for every hold completion.
	OnTouch func(Event)
}

// NewDetector creates a detector over the wall's hold set. Route
// scoping is applied by scoping the wall before construction.
func NewDetector(w *wall.Wall, config Config) *Detector {
	d := &Detector{
		wall:   w,
		config: config,
		states: make(map[string]*HoldState, len(w.Holds)),
		timers: make(map[string]time.Time),
	}
	for _, h := range w.Holds {
		d.states[h.ID] = &HoldState{HoldID: h.ID, Type: h.Type, Status: StatusUntouched}
	}
	return d
}

// Wall returns the hold set the detector watches.
func (d *Detector) Wall() *wall.Wall { return d.wall }

// Process evaluates one wall-space frame and returns the holds whose
// status changed (usually none or one). The frame's own timestamp
// drives the debounce clock.
func (d *Detector) Process(f *pose.Frame) []HoldState {
	hands := handPositions(f)
	now := f.Timestamp

	var changed []HoldState
	for i := range d.wall.Holds {
		h := &d.wall.Holds[i]
		state := d.states[h.ID]
		if state.Status == StatusCompleted {
			if d.config.Mode == ModeRetrigger && !d.inProximity(h, hands) {
				// Hand left the hold: re-arm it.
				state.Status = StatusUntouched
			}
			continue
		}

		if !d.inProximity(h, hands) {
			// Proximity must be continuous; any gap resets the timer.
			delete(d.timers, h.ID)
			continue
		}

		started, ok := d.timers[h.ID]
		if !ok {
			d.timers[h.ID] = now
			continue
		}
		if now.Sub(started) < d.config.TouchDuration {
			continue
		}

		completedAt := started.Add(d.config.TouchDuration)
		state.Status = StatusCompleted
		state.CompletedAt = &completedAt
		delete(d.timers, h.ID)
		changed = append(changed, *state)

		if d.OnTouch != nil {
			d.OnTouch(Event{
				HoldID:        h.ID,
				WallID:        d.wall.ID,
				Timestamp:     completedAt,
				TouchDuration: d.config.TouchDuration,
			})
		}
	}
	return changed
}

func (d *Detector) inProximity(h *wall.Hold, hands []geometry.Point) bool {
	for _, p := range hands {
		if geometry.Distance(p, h.Center) < d.config.ProximityThreshold {
			return true
		}
	}
	return false
}

// States returns the full current status of every hold, in the wall's
// hold order, for snapshotting.
func (d *Detector) States() []HoldState {
	out := make([]HoldState, 0, len(d.wall.Holds))
	for _, h := range d.wall.Holds {
		out = append(out, *d.states[h.ID])
	}
	return out
}

// Reset sets every hold back to untouched and clears all timers.
func (d *Detector) Reset() {
	for _, s := range d.states {
		s.Status = StatusUntouched
		s.CompletedAt = nil
	}
	d.timers = make(map[string]time.Time)
}

// handPositions derives each hand's representative wall-space
// position: the mean of its wrist, pinky and index landmarks, filtered
// to those with visibility above the floor. The synthetic extended
// landmark, when present and visible, contributes an additional
// candidate since it models the gripping reach. A hand with no visible
// landmarks contributes nothing.
func handPositions(f *pose.Frame) []geometry.Point {
	byIndex := make(map[int]pose.Landmark, len(f.Landmarks))
	for _, lm := range f.Landmarks {
		byIndex[lm.Index] = lm
	}

	var out []geometry.Point
	for _, hand := range pose.Hands {
		var sx, sy float64
		n := 0
		for _, idx := range []int{hand.Wrist(), hand.Pinky(), hand.Index()} {
			lm, ok := byIndex[idx]
			if !ok || lm.Visibility <= visibilityFloor {
				continue
			}
			sx += lm.X
			sy += lm.Y
			n++
		}
		if n > 0 {
			out = append(out, geometry.Point{X: sx / float64(n), Y: sy / float64(n)})
		}
		if ext, ok := byIndex[hand.Extended()]; ok && ext.Visibility > visibilityFloor {
			out = append(out, geometry.Point{X: ext.X, Y: ext.Y})
		}
	}
	return out
}
