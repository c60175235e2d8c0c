// Package session aggregates per-hold touch state into the publishable
// session snapshot.
package session

import (
	"time"

	"github.com/anvith/gripstream/internal/geometry"
	"github.com/anvith/gripstream/internal/pose"
	"github.com/anvith/gripstream/internal/touch"
	"github.com/google/uuid"
)

// Status is the session lifecycle status.
type Status string

const (
	// StatusStarted means frames are being processed.
	StatusStarted Status = "started"
	// StatusCompleted means the session was explicitly ended.
	StatusCompleted Status = "completed"
)

// HoldInfo is one hold's entry in a published snapshot.
type HoldInfo struct {
	ID     string           `json:"id"`
	Type   string           `json:"type"`
	Status string           `json:"status"`
	Time   *time.Time       `json:"time"`
	Path   []geometry.Point `json:"path,omitempty"`
}

// Info is the session portion of a snapshot.
type Info struct {
	Holds     []HoldInfo `json:"holds"`
	StartTime *time.Time `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Status    Status     `json:"status"`
}

// Snapshot is the publishable session state: every hold the wall
// knows, the session lifecycle, and optionally the latest pose.
type Snapshot struct {
	Session Info            `json:"session"`
	Pose    []pose.Landmark `json:"pose,omitempty"`
	Reset   bool            `json:"reset,omitempty"`
}

// Tracker owns the Session record for one wall run. It is driven
// exclusively by the pipeline's inbound handler (single writer, no
// locks) per the pipeline concurrency model.
type Tracker struct {
	id       string
	detector *touch.Detector

	startTime *time.Time
	endTime   *time.Time
	status    Status
	lastFrame *pose.Frame

	// pendingReset marks that the next published snapshot must carry
	// the reset flag.
	pendingReset bool
}

// NewTracker creates a tracker over the given detector. The session
// itself starts on the first frame, not at construction.
func NewTracker(detector *touch.Detector) *Tracker {
	return &Tracker{
		id:       uuid.NewString(),
		detector: detector,
	}
}

// ID returns the session identifier.
func (t *Tracker) ID() string { return t.id }

// Started reports whether a first frame has arrived.
func (t *Tracker) Started() bool { return t.startTime != nil }

// Detector exposes the underlying hold detector.
func (t *Tracker) Detector() *touch.Detector { return t.detector }

// OnFrame feeds one transformed frame through the detector and returns
// the resulting snapshot. The very first call starts the session and
// fixes its start time to the frame timestamp.
func (t *Tracker) OnFrame(f *pose.Frame) Snapshot {
	if t.startTime == nil {
		start := f.Timestamp
		t.startTime = &start
		t.status = StatusStarted
	}
	t.detector.Process(f)
	t.lastFrame = f
	return t.Snapshot(true, false)
}

// Snapshot builds the current session snapshot without processing a
// new frame, for periodic re-publication. includePose attaches the
// most recent frame's landmarks; includeTouchedPaths attaches the
// outline of every completed hold.
func (t *Tracker) Snapshot(includePose, includeTouchedPaths bool) Snapshot {
	states := t.detector.States()
	holds := make([]HoldInfo, len(states))
	for i, s := range states {
		holds[i] = HoldInfo{
			ID:     s.HoldID,
			Type:   string(s.Type),
			Status: string(s.Status),
			Time:   s.CompletedAt,
		}
		if includeTouchedPaths && s.Status == touch.StatusCompleted {
			if h, ok := t.detector.Wall().Hold(s.HoldID); ok {
				holds[i].Path = h.Polygon
			}
		}
	}

	snap := Snapshot{
		Session: Info{
			Holds:     holds,
			StartTime: t.startTime,
			EndTime:   t.endTime,
			Status:    t.status,
		},
		Reset: t.pendingReset,
	}
	t.pendingReset = false

	if includePose && t.lastFrame != nil {
		snap.Pose = t.lastFrame.Landmarks
	}
	return snap
}

// EndSession marks the session completed. Idempotent; the first call
// fixes the end time.
func (t *Tracker) EndSession() {
	if t.status == StatusCompleted {
		return
	}
	now := time.Now()
	t.endTime = &now
	t.status = StatusCompleted
}

// Reset sets every hold back to untouched and clears all touch timers
// without ending the session, so a route can be rehearsed without
// restarting the pipeline. The next published snapshot carries the
// reset flag.
func (t *Tracker) Reset() {
	t.detector.Reset()
	t.pendingReset = true
}
