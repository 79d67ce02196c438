package codec

import "math"

// EncodeVolume folds the indicative flag of a side into the sign of its
// volume. Only valid for feeds whose volumes are never negative.
func EncodeVolume(volume float64, indicative bool) float64 {
	if indicative {
		return -math.Abs(volume)
	}
	return volume
}

// DecodeVolume splits an encoded volume into magnitude and indicative flag.
func DecodeVolume(encoded float64) (volume float64, indicative bool) {
	if math.Signbit(encoded) {
		return -encoded, true
	}
	return encoded, false
}
