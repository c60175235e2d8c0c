package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		data string
		want Type
	}{
		{`{"type":"pose","landmarks":[]}`, TypePose},
		{`{"type":"reset_holds"}`, TypeResetHolds},
		{`{"type":"start_recording"}`, TypeStartRecording},
		{`{"type":"stop_recording"}`, TypeStopRecording},
		{`{"type":"weather"}`, Type("weather")},
	}
	for _, tc := range cases {
		got, err := Classify([]byte(tc.data))
		if err != nil {
			t.Errorf("Classify(%s) error = %v", tc.data, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Classify(%s) = %q, want %q", tc.data, got, tc.want)
		}
	}
}

func TestClassify_Errors(t *testing.T) {
	if _, err := Classify([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
	if _, err := Classify([]byte(`{"landmarks":[]}`)); err == nil {
		t.Error("expected error for missing type tag")
	}
}

func TestKnown(t *testing.T) {
	for _, typ := range []Type{TypePose, TypeResetHolds, TypeStartRecording, TypeStopRecording} {
		if !Known(typ) {
			t.Errorf("Known(%q) = false", typ)
		}
	}
	if Known(Type("weather")) {
		t.Error(`Known("weather") = true`)
	}
}

func TestNewHoldTouch(t *testing.T) {
	at := time.Unix(1700000001, 0)
	evt := NewHoldTouch("A", "wall-1", at, 1500*time.Millisecond)

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if decoded["type"] != "hold_touch" {
		t.Errorf("type = %v", decoded["type"])
	}
	if decoded["holdId"] != "A" || decoded["wallId"] != "wall-1" {
		t.Errorf("ids = %v/%v", decoded["holdId"], decoded["wallId"])
	}
	if decoded["touchDuration"] != 1.5 {
		t.Errorf("touchDuration = %v, want 1.5", decoded["touchDuration"])
	}
}
