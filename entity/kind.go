package entity

import "fmt"

// Kind discriminates the entity variants.
type Kind uint8

const (
	KindPose Kind = iota + 1
	KindCalibration
	KindKeyFrame
)

func (k Kind) String() string {
	switch k {
	case KindPose:
		return "pose"
	case KindCalibration:
		return "calibration"
	case KindKeyFrame:
		return "keyframe"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= KindPose && k <= KindKeyFrame
}
