package vision

import (
	"bytes"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
)

// DefaultContrastGain compensates for the game's dark UI theme before text
// recognition.
const DefaultContrastGain = 1.2

// Preprocess boosts each RGB channel by gain and re-encodes as PNG. It never
// fails the pipeline: on any decode or encode error the original bytes come
// back unchanged and a warning is logged.
func Preprocess(img []byte, gain float64, log *logrus.Entry) []byte {
	if gain <= 0 {
		gain = DefaultContrastGain
	}
	decoded, err := imaging.Decode(bytes.NewReader(img))
	if err != nil {
		if log != nil {
			log.WithError(err).Warn("preprocess: decode failed, using original bytes")
		}
		return img
	}
	boosted := boostChannels(decoded, gain)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, boosted, imaging.PNG); err != nil {
		if log != nil {
			log.WithError(err).Warn("preprocess: encode failed, using original bytes")
		}
		return img
	}
	return buf.Bytes()
}

// boostChannels multiplies R, G and B by gain, clamping at 255.
func boostChannels(img image.Image, gain float64) *image.NRGBA {
	b := img.Bounds()
	out := imaging.New(b.Dx(), b.Dy(), color.NRGBA{0, 0, 0, 255})
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bb, a := img.At(x, y).RGBA()
			out.Set(x-b.Min.X, y-b.Min.Y, color.NRGBA{
				R: clamp8(float64(r>>8) * gain),
				G: clamp8(float64(g>>8) * gain),
				B: clamp8(float64(bb>>8) * gain),
				A: uint8(a >> 8),
			})
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return uint8(v)
}
