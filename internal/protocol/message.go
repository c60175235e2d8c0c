// Package protocol defines the closed set of WebSocket message types
// exchanged with the pose source and the downstream session consumers.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies an inbound message variant.
type Type string

const (
	// TypePose is a body-pose frame from the upstream estimator.
	TypePose Type = "pose"
	// TypeResetHolds asks the pipeline to set every hold back to
	// untouched without ending the session.
	TypeResetHolds Type = "reset_holds"
	// TypeStartRecording toggles the external recording side channel on.
	TypeStartRecording Type = "start_recording"
	// TypeStopRecording toggles the external recording side channel off.
	TypeStopRecording Type = "stop_recording"

	// TypeHoldTouch is the outbound per-hold touch event.
	TypeHoldTouch Type = "hold_touch"
)

// Classify reads only the type tag of an inbound message so control
// messages are never misread as pose data. Unknown types are returned
// as-is for the caller to log and drop.
func Classify(data []byte) (Type, error) {
	var envelope struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return "", fmt.Errorf("unreadable message: %w", err)
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("message has no type tag")
	}
	return envelope.Type, nil
}

// Known reports whether t belongs to the accepted inbound set.
func Known(t Type) bool {
	switch t {
	case TypePose, TypeResetHolds, TypeStartRecording, TypeStopRecording:
		return true
	}
	return false
}

// HoldTouch is the simple downstream event published when a hold
// completes.
type HoldTouch struct {
	Type          Type    `json:"type"`
	HoldID        string  `json:"holdId"`
	WallID        string  `json:"wallId"`
	Timestamp     int64   `json:"timestamp"`
	TouchDuration float64 `json:"touchDuration"`
}

// NewHoldTouch builds a hold_touch event. The timestamp is Unix
// milliseconds; the duration is in seconds, matching the detector
// configuration's unit downstream.
func NewHoldTouch(holdID, wallID string, at time.Time, duration time.Duration) HoldTouch {
	return HoldTouch{
		Type:          TypeHoldTouch,
		HoldID:        holdID,
		WallID:        wallID,
		Timestamp:     at.UnixMilli(),
		TouchDuration: duration.Seconds(),
	}
}
