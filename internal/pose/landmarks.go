// Package pose defines the body-pose landmark model consumed by the
// pipeline and the validation of inbound pose frames.
package pose

// Body landmark indices following the BlazePose convention. Indices
// are positional and semantically significant; frames never reorder
// them.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33

	// Synthetic landmarks appended by the transform stage; they model
	// the reach of a gripping hand beyond the palm.
	LeftHandExtended  = 33
	RightHandExtended = 34
)

// Landmark is one tracked body keypoint. X and Y are in normalized
// image coordinates on an inbound frame and in wall coordinates after
// the transform stage; Z and Visibility pass through untouched.
type Landmark struct {
	Index      int     `json:"index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Hand identifies one of the climber's hands.
type Hand int

const (
	LeftHand Hand = iota
	RightHand
)

// String returns the hand name for logging.
func (h Hand) String() string {
	if h == LeftHand {
		return "left"
	}
	return "right"
}

// Wrist returns the wrist landmark index for the hand.
func (h Hand) Wrist() int {
	if h == LeftHand {
		return LeftWrist
	}
	return RightWrist
}

// Pinky returns the pinky landmark index for the hand.
func (h Hand) Pinky() int {
	if h == LeftHand {
		return LeftPinky
	}
	return RightPinky
}

// Index returns the index-finger landmark index for the hand.
func (h Hand) Index() int {
	if h == LeftHand {
		return LeftIndex
	}
	return RightIndex
}

// Thumb returns the thumb landmark index for the hand.
func (h Hand) Thumb() int {
	if h == LeftHand {
		return LeftThumb
	}
	return RightThumb
}

// Elbow returns the elbow landmark index for the hand's arm.
func (h Hand) Elbow() int {
	if h == LeftHand {
		return LeftElbow
	}
	return RightElbow
}

// Extended returns the synthetic extended-hand landmark index.
func (h Hand) Extended() int {
	if h == LeftHand {
		return LeftHandExtended
	}
	return RightHandExtended
}

// Hands lists both hands in a fixed order.
var Hands = [2]Hand{LeftHand, RightHand}
