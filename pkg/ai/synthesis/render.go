package synthesis

import (
	"bytes"
	"hash/fnv"
	"image"
	"image/color"
	"image/jpeg"
	"strconv"
	"strings"
)

const (
	thumbWidth  = 1280
	thumbHeight = 720
)

// renderPlaceholder draws a deterministic gradient thumbnail so offline tiers still
// produce a real image file.
func renderPlaceholder(primaryHex, seed string) ([]byte, error) {
	base := parseHex(primaryHex, color.RGBA{0x00, 0x66, 0xFF, 0xFF})

	h := fnv.New32a()
	h.Write([]byte(seed))
	shift := uint8(h.Sum32() % 96)

	img := image.NewRGBA(image.Rect(0, 0, thumbWidth, thumbHeight))
	for y := 0; y < thumbHeight; y++ {
		for x := 0; x < thumbWidth; x++ {
			t := float64(x+y) / float64(thumbWidth+thumbHeight)
			img.Set(x, y, color.RGBA{
				R: blend(base.R, 255-shift, t),
				G: blend(base.G, shift, t),
				B: blend(base.B, 128, t),
				A: 0xFF,
			})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func blend(a, b uint8, t float64) uint8 {
	return uint8(float64(a)*(1-t) + float64(b)*t)
}

func parseHex(s string, fallback color.RGBA) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return fallback
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}
}
