// Package pipeline wires the relay transport, coordinate transform,
// hold detector and session tracker together for one wall session.
package pipeline

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/anvith/gripstream/internal/calibration"
	"github.com/anvith/gripstream/internal/pose"
	"github.com/anvith/gripstream/internal/protocol"
	"github.com/anvith/gripstream/internal/relay"
	"github.com/anvith/gripstream/internal/session"
	"github.com/anvith/gripstream/internal/touch"
	"github.com/anvith/gripstream/internal/transform"
	"github.com/anvith/gripstream/internal/wall"
)

// DefaultSnapshotInterval is how often the current session state is
// re-published even without new frames.
const DefaultSnapshotInterval = 5 * time.Second

// ErrNoCalibration means a pipeline was configured without a usable
// calibration. Fatal at setup time; surfaced to the operator, never
// retried automatically.
var ErrNoCalibration = errors.New("no calibration for wall")

// ErrNoWallGeometry means a pipeline was configured without hold
// geometry. Fatal at setup time, like ErrNoCalibration.
var ErrNoWallGeometry = errors.New("no wall geometry")

// RecordingControl is the external recording side channel toggled by
// control messages. Out of core scope; the pipeline only forwards.
type RecordingControl interface {
	Start() error
	Stop() error
}

// Config assembles one pipeline's collaborators.
type Config struct {
	Wall        *wall.Wall
	Calibration *calibration.Calibration
	Touch       touch.Config

	// UpstreamURL is the pose source; DownstreamURL receives session
	// updates. Either may be empty in tests, in which case the
	// corresponding relay client is not created.
	UpstreamURL   string
	DownstreamURL string

	SnapshotInterval time.Duration
	Recorder         RecordingControl
}

// Pipeline runs transport → transform → detection → tracking for one
// wall and session. All mutable session state is written exclusively
// by the inbound message handler; other goroutines only read the
// latest published snapshot.
type Pipeline struct {
	config   Config
	tracker  *session.Tracker
	detector *touch.Detector
	inbound  *relay.Inbound
	outbound *relay.Outbound

	// handlerMu serializes HandleMessage so operator-triggered control
	// actions (tray, HTTP) cannot interleave with the relay's receive
	// goroutine. Uncontended in steady state: the relay is the only
	// caller.
	handlerMu sync.Mutex

	mu      sync.RWMutex
	latest  session.Snapshot
	enabled bool
	stopCh  chan struct{}
}

// New validates the configuration and assembles a pipeline. It fails
// fast when calibration or wall geometry is missing or unusable.
func New(config Config) (*Pipeline, error) {
	if config.Wall == nil || len(config.Wall.Holds) == 0 {
		return nil, ErrNoWallGeometry
	}
	if config.Calibration == nil {
		return nil, ErrNoCalibration
	}
	if _, err := config.Calibration.Inverse(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCalibration, err)
	}
	if config.SnapshotInterval <= 0 {
		config.SnapshotInterval = DefaultSnapshotInterval
	}

	p := &Pipeline{
		config:   config,
		detector: touch.NewDetector(config.Wall, config.Touch),
		enabled:  true,
	}
	p.tracker = session.NewTracker(p.detector)

	if config.DownstreamURL != "" {
		p.outbound = relay.NewOutbound(config.DownstreamURL)
	}
	if config.UpstreamURL != "" {
		p.inbound = relay.NewInbound(config.UpstreamURL, p.HandleMessage)
	}

	// Every hold completion also goes downstream as a simple
	// hold_touch event for consumers that do not track sessions.
	p.detector.OnTouch = func(e touch.Event) {
		log.Printf("pipeline: hold %s completed on wall %s", e.HoldID, e.WallID)
		p.publish(protocol.NewHoldTouch(e.HoldID, e.WallID, e.Timestamp, e.TouchDuration))
	}

	return p, nil
}

// SessionID returns the tracker's session identifier.
func (p *Pipeline) SessionID() string { return p.tracker.ID() }

// Start launches the relay clients and the periodic snapshot loop.
func (p *Pipeline) Start() {
	p.mu.Lock()
	if p.stopCh != nil {
		p.mu.Unlock()
		return
	}
	p.stopCh = make(chan struct{})
	stopCh := p.stopCh
	p.mu.Unlock()

	if p.outbound != nil {
		p.outbound.Start()
	}
	if p.inbound != nil {
		p.inbound.Start()
	}
	go p.republish(stopCh)

	log.Printf("pipeline: started for wall %s (session %s)", p.config.Wall.ID, p.tracker.ID())
}

// Stop ends the session and shuts everything down. Idempotent.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.stopCh == nil {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.stopCh = nil
	p.mu.Unlock()

	if p.inbound != nil {
		p.inbound.Stop()
	}

	p.handlerMu.Lock()
	p.tracker.EndSession()
	p.publishSnapshot(p.tracker.Snapshot(false, false))
	p.handlerMu.Unlock()

	if p.outbound != nil {
		// Give the final session update a moment to drain, then cut.
		time.Sleep(100 * time.Millisecond)
		p.outbound.Stop()
	}
	log.Printf("pipeline: stopped (session %s)", p.tracker.ID())
}

// SetEnabled pauses or resumes pose processing. Control messages are
// handled either way.
func (p *Pipeline) SetEnabled(enabled bool) {
	p.mu.Lock()
	p.enabled = enabled
	p.mu.Unlock()
}

// IsEnabled reports whether pose frames are being processed.
func (p *Pipeline) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// Snapshot returns the most recently published session snapshot. Safe
// for concurrent use; it never touches detector state.
func (p *Pipeline) Snapshot() session.Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// ResetHolds sets every hold back to untouched without ending the
// session, as if a reset_holds control message had arrived.
func (p *Pipeline) ResetHolds() {
	p.HandleMessage([]byte(`{"type":"reset_holds"}`))
}

// HandleMessage dispatches one inbound message. It is the single
// writer of all session state: the inbound relay calls it from its
// receive goroutine, and tests call it directly.
func (p *Pipeline) HandleMessage(data []byte) {
	p.handlerMu.Lock()
	defer p.handlerMu.Unlock()

	msgType, err := protocol.Classify(data)
	if err != nil {
		log.Printf("pipeline: dropping message: %v", err)
		return
	}

	switch msgType {
	case protocol.TypePose:
		p.handlePose(data)
	case protocol.TypeResetHolds:
		log.Printf("pipeline: resetting holds (session %s)", p.tracker.ID())
		p.tracker.Reset()
		p.publishSnapshot(p.tracker.Snapshot(false, false))
	case protocol.TypeStartRecording:
		if p.config.Recorder != nil {
			if err := p.config.Recorder.Start(); err != nil {
				log.Printf("pipeline: start recording: %v", err)
			}
		}
	case protocol.TypeStopRecording:
		if p.config.Recorder != nil {
			if err := p.config.Recorder.Stop(); err != nil {
				log.Printf("pipeline: stop recording: %v", err)
			}
		}
	default:
		log.Printf("pipeline: ignoring unknown message type %q", msgType)
	}
}

func (p *Pipeline) handlePose(data []byte) {
	if !p.IsEnabled() {
		return
	}

	frame, err := pose.ParseFrame(data)
	if err != nil {
		// One bad frame is dropped; a run of them is not escalated.
		log.Printf("pipeline: dropping frame: %v", err)
		return
	}

	transformed := transform.Frame(frame, p.config.Calibration)
	snap := p.tracker.OnFrame(transformed)
	p.publishSnapshot(snap)
}

// republish periodically resends the latest session state so
// downstream consumers recover after missed updates.
func (p *Pipeline) republish(stopCh <-chan struct{}) {
	ticker := time.NewTicker(p.config.SnapshotInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			snap := p.Snapshot()
			if snap.Session.StartTime == nil {
				continue
			}
			// The reset flag belongs only to the update immediately
			// after a reset, never to a re-publication.
			snap.Reset = false
			p.publish(snap)
		}
	}
}

func (p *Pipeline) publishSnapshot(snap session.Snapshot) {
	p.mu.Lock()
	p.latest = snap
	p.mu.Unlock()
	p.publish(snap)
}

func (p *Pipeline) publish(v any) {
	if p.outbound == nil {
		return
	}
	if err := p.outbound.SendJSON(v); err != nil {
		log.Printf("pipeline: encode outbound message: %v", err)
	}
}
