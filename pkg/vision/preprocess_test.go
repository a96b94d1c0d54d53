package vision

import (
	"bytes"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

func TestPreprocessBoostsChannels(t *testing.T) {
	src := imaging.New(4, 4, color.NRGBA{100, 150, 240, 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, src, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := Preprocess(buf.Bytes(), 1.2, nil)
	decoded, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	r, g, b, _ := decoded.At(0, 0).RGBA()
	if uint8(r>>8) != 120 || uint8(g>>8) != 180 {
		t.Fatalf("expected 1.2x gain, got r=%d g=%d", r>>8, g>>8)
	}
	if uint8(b>>8) != 255 {
		t.Fatalf("expected blue clamped at 255, got %d", b>>8)
	}
}

func TestPreprocessUndecodablePassthrough(t *testing.T) {
	in := []byte("definitely not an image")
	out := Preprocess(in, 1.2, nil)
	if !bytes.Equal(in, out) {
		t.Fatalf("undecodable input must pass through unchanged")
	}
}

func TestPreprocessPreservesDimensions(t *testing.T) {
	in := pngBytes(t, 33, 17)
	out := Preprocess(in, 1.2, nil)
	decoded, err := imaging.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.Bounds().Dx() != 33 || decoded.Bounds().Dy() != 17 {
		t.Fatalf("dimensions changed: %v", decoded.Bounds())
	}
}
