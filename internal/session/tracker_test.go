package session

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/anvith/gripstream/internal/geometry"
	"github.com/anvith/gripstream/internal/pose"
	"github.com/anvith/gripstream/internal/touch"
	"github.com/anvith/gripstream/internal/wall"
)

func newTracker(t *testing.T) *Tracker {
	t.Helper()
	w, err := wall.NewWall("wall-1", []wall.Hold{
		{ID: "A", Center: geometry.Point{X: 100, Y: 100}, Polygon: []geometry.Point{{X: 90, Y: 90}, {X: 110, Y: 90}, {X: 100, Y: 110}}, Type: wall.HoldTypeStart},
		{ID: "B", Center: geometry.Point{X: 500, Y: 500}, Polygon: []geometry.Point{{X: 490, Y: 490}, {X: 510, Y: 490}, {X: 500, Y: 510}}, Type: wall.HoldTypeNormal},
	})
	if err != nil {
		t.Fatalf("NewWall() error = %v", err)
	}
	det := touch.NewDetector(w, touch.Config{ProximityThreshold: 50, TouchDuration: time.Second})
	return NewTracker(det)
}

func handFrame(at time.Time, x, y float64) *pose.Frame {
	return &pose.Frame{
		Timestamp: at,
		Landmarks: []pose.Landmark{
			{Index: pose.RightWrist, X: x, Y: y, Visibility: 0.9},
			{Index: pose.RightPinky, X: x, Y: y, Visibility: 0.9},
			{Index: pose.RightIndex, X: x, Y: y, Visibility: 0.9},
		},
	}
}

func TestTracker_FirstFrameStartsSession(t *testing.T) {
	tr := newTracker(t)
	if tr.Started() {
		t.Fatal("session started before any frame")
	}

	t0 := time.Unix(1700000000, 0)
	snap := tr.OnFrame(handFrame(t0, 110, 100))

	if !tr.Started() {
		t.Fatal("session not started after first frame")
	}
	if snap.Session.Status != StatusStarted {
		t.Errorf("status = %q, want started", snap.Session.Status)
	}
	if snap.Session.StartTime == nil || !snap.Session.StartTime.Equal(t0) {
		t.Errorf("startTime = %v, want %v", snap.Session.StartTime, t0)
	}
	if len(snap.Pose) == 0 {
		t.Error("OnFrame snapshot is missing the pose")
	}
}

func TestTracker_SnapshotListsEveryHold(t *testing.T) {
	tr := newTracker(t)
	t0 := time.Unix(1700000000, 0)
	tr.OnFrame(handFrame(t0, 110, 100))
	snap := tr.OnFrame(handFrame(t0.Add(1200*time.Millisecond), 110, 100))

	if len(snap.Session.Holds) != 2 {
		t.Fatalf("snapshot lists %d holds, want all 2", len(snap.Session.Holds))
	}

	byID := map[string]HoldInfo{}
	for _, h := range snap.Session.Holds {
		byID[h.ID] = h
	}
	if byID["A"].Status != string(touch.StatusCompleted) || byID["A"].Time == nil {
		t.Errorf("hold A = %+v, want completed with a time", byID["A"])
	}
	if byID["B"].Status != string(touch.StatusUntouched) {
		t.Errorf("hold B = %+v, want untouched", byID["B"])
	}
	if byID["A"].Type != string(wall.HoldTypeStart) {
		t.Errorf("hold A type = %q, want start", byID["A"].Type)
	}
}

func TestTracker_SnapshotOptions(t *testing.T) {
	tr := newTracker(t)
	t0 := time.Unix(1700000000, 0)
	tr.OnFrame(handFrame(t0, 110, 100))
	tr.OnFrame(handFrame(t0.Add(1200*time.Millisecond), 110, 100))

	bare := tr.Snapshot(false, false)
	if bare.Pose != nil {
		t.Error("snapshot without pose still carries landmarks")
	}

	withPaths := tr.Snapshot(true, true)
	var found bool
	for _, h := range withPaths.Session.Holds {
		if h.ID == "A" && len(h.Path) > 0 {
			found = true
		}
		if h.ID == "B" && len(h.Path) > 0 {
			t.Error("untouched hold carries a path")
		}
	}
	if !found {
		t.Error("completed hold is missing its path")
	}
	if len(withPaths.Pose) == 0 {
		t.Error("snapshot with pose is missing landmarks")
	}
}

func TestTracker_EndSessionIdempotent(t *testing.T) {
	tr := newTracker(t)
	tr.OnFrame(handFrame(time.Unix(1700000000, 0), 300, 300))

	tr.EndSession()
	snap := tr.Snapshot(false, false)
	if snap.Session.Status != StatusCompleted || snap.Session.EndTime == nil {
		t.Fatalf("session not completed: %+v", snap.Session)
	}
	first := *snap.Session.EndTime

	tr.EndSession()
	if got := tr.Snapshot(false, false).Session.EndTime; !got.Equal(first) {
		t.Error("EndSession moved the end time on a second call")
	}
}

func TestTracker_ResetFlagsNextSnapshotOnly(t *testing.T) {
	tr := newTracker(t)
	t0 := time.Unix(1700000000, 0)
	tr.OnFrame(handFrame(t0, 110, 100))
	tr.OnFrame(handFrame(t0.Add(1200*time.Millisecond), 110, 100))

	tr.Reset()

	snap := tr.Snapshot(false, false)
	if !snap.Reset {
		t.Fatal("first snapshot after Reset() is missing the reset flag")
	}
	for _, h := range snap.Session.Holds {
		if h.Status != string(touch.StatusUntouched) {
			t.Errorf("hold %s = %q after reset", h.ID, h.Status)
		}
	}
	// Session keeps running.
	if snap.Session.Status != StatusStarted {
		t.Errorf("reset ended the session: %q", snap.Session.Status)
	}

	if tr.Snapshot(false, false).Reset {
		t.Error("reset flag leaked into a second snapshot")
	}
}

func TestSnapshot_JSONShape(t *testing.T) {
	tr := newTracker(t)
	t0 := time.Unix(1700000000, 0)
	snap := tr.OnFrame(handFrame(t0, 110, 100))

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	sess, ok := decoded["session"].(map[string]any)
	if !ok {
		t.Fatal("snapshot JSON is missing the session object")
	}
	for _, key := range []string{"holds", "startTime", "endTime", "status"} {
		if _, ok := sess[key]; !ok {
			t.Errorf("session JSON is missing %q", key)
		}
	}
	if _, ok := decoded["pose"]; !ok {
		t.Error("snapshot JSON is missing the pose")
	}
	// The reset flag is omitted unless set.
	if _, ok := decoded["reset"]; ok {
		t.Error("reset flag present without a reset")
	}
}
