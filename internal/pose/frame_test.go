package pose

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// poseJSON builds a minimal valid pose message with n landmarks.
func poseJSON(n int) string {
	var sb strings.Builder
	sb.WriteString(`{"type":"pose","timestamp":1700000000000,"width":640,"height":480,"landmarks":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"x":0.%d,"y":0.5,"z":0,"visibility":0.9}`, i%10)
	}
	sb.WriteString("]}")
	return sb.String()
}

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(poseJSON(NumLandmarks)))
	if err != nil {
		t.Fatalf("ParseFrame() error = %v", err)
	}

	if len(f.Landmarks) != NumLandmarks {
		t.Fatalf("got %d landmarks, want %d", len(f.Landmarks), NumLandmarks)
	}
	if f.Width != 640 || f.Height != 480 {
		t.Errorf("dimensions = %dx%d, want 640x480", f.Width, f.Height)
	}
	if f.Landmarks[5].Index != 5 {
		t.Errorf("landmark 5 carries index %d", f.Landmarks[5].Index)
	}
	if f.Timestamp.UnixMilli() != 1700000000000 {
		t.Errorf("timestamp = %d, want 1700000000000", f.Timestamp.UnixMilli())
	}
}

func TestParseFrame_Invalid(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"NotJSON", `{`},
		{"WrongType", `{"type":"telemetry","width":640,"height":480,"landmarks":[{"x":0,"y":0,"z":0,"visibility":1}]}`},
		{"MissingDimensions", `{"type":"pose","landmarks":[{"x":0,"y":0,"z":0,"visibility":1}]}`},
		{"NoLandmarks", `{"type":"pose","width":640,"height":480,"landmarks":[]}`},
		{"MissingCoordinate", `{"type":"pose","width":640,"height":480,"landmarks":[{"x":0,"y":0,"visibility":1}]}`},
		{"NonNumeric", `{"type":"pose","width":640,"height":480,"landmarks":[{"x":"a","y":0,"z":0,"visibility":1}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseFrame([]byte(tc.data)); !errors.Is(err, ErrInvalidFrameFormat) {
				t.Errorf("ParseFrame() error = %v, want ErrInvalidFrameFormat", err)
			}
		})
	}
}

func TestHandIndices(t *testing.T) {
	if LeftHand.Wrist() != LeftWrist || RightHand.Wrist() != RightWrist {
		t.Error("wrist indices do not line up with the landmark constants")
	}
	if LeftHand.Extended() != LeftHandExtended || RightHand.Extended() != RightHandExtended {
		t.Error("extended indices do not line up with the landmark constants")
	}
}
