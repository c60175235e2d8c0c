package pose

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidFrameFormat is returned when an inbound pose message is
// missing required fields or carries non-numeric landmark values. The
// frame is dropped and processing continues.
var ErrInvalidFrameFormat = errors.New("invalid frame format")

// Frame is one pose observation: an ordered, positional sequence of
// landmarks plus the capture timestamp and source image dimensions.
type Frame struct {
	Timestamp time.Time
	Width     int
	Height    int
	Landmarks []Landmark
}

// Landmark returns the landmark at index i and whether it exists.
func (f *Frame) Landmark(i int) (Landmark, bool) {
	if i < 0 || i >= len(f.Landmarks) {
		return Landmark{}, false
	}
	return f.Landmarks[i], true
}

// rawLandmark mirrors the wire landmark with pointer fields so missing
// keys are distinguishable from zero values.
type rawLandmark struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Z          *float64 `json:"z"`
	Visibility *float64 `json:"visibility"`
}

type rawFrame struct {
	Type      string        `json:"type"`
	Timestamp *float64      `json:"timestamp"`
	Width     *int          `json:"width"`
	Height    *int          `json:"height"`
	Landmarks []rawLandmark `json:"landmarks"`
}

// ParseFrame validates and decodes an inbound pose message. It
// requires type == "pose", image dimensions, and a numeric
// x/y/z/visibility on every landmark; anything else fails with
// ErrInvalidFrameFormat.
func ParseFrame(data []byte) (*Frame, error) {
	var raw rawFrame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFrameFormat, err)
	}
	if raw.Type != "pose" {
		return nil, fmt.Errorf("%w: type %q is not a pose message", ErrInvalidFrameFormat, raw.Type)
	}
	if raw.Width == nil || raw.Height == nil {
		return nil, fmt.Errorf("%w: missing image dimensions", ErrInvalidFrameFormat)
	}
	if len(raw.Landmarks) == 0 {
		return nil, fmt.Errorf("%w: no landmarks", ErrInvalidFrameFormat)
	}

	f := &Frame{
		Width:     *raw.Width,
		Height:    *raw.Height,
		Landmarks: make([]Landmark, len(raw.Landmarks)),
	}
	if raw.Timestamp != nil {
		f.Timestamp = fromUnixMilli(*raw.Timestamp)
	} else {
		f.Timestamp = time.Now()
	}

	for i, lm := range raw.Landmarks {
		if lm.X == nil || lm.Y == nil || lm.Z == nil || lm.Visibility == nil {
			return nil, fmt.Errorf("%w: landmark %d is missing a coordinate", ErrInvalidFrameFormat, i)
		}
		if !numeric(*lm.X) || !numeric(*lm.Y) || !numeric(*lm.Z) || !numeric(*lm.Visibility) {
			return nil, fmt.Errorf("%w: landmark %d has a non-finite coordinate", ErrInvalidFrameFormat, i)
		}
		f.Landmarks[i] = Landmark{
			Index:      i,
			X:          *lm.X,
			Y:          *lm.Y,
			Z:          *lm.Z,
			Visibility: *lm.Visibility,
		}
	}
	return f, nil
}

func numeric(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// fromUnixMilli converts a fractional Unix-millisecond timestamp.
func fromUnixMilli(ms float64) time.Time {
	sec := int64(ms / 1000)
	nsec := int64(math.Mod(ms, 1000) * float64(time.Millisecond))
	return time.Unix(sec, nsec)
}
