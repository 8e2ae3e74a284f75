package vision

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"strconv"

	_ "image/gif"
	_ "image/png"

	"github.com/fogleman/gg"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font/basicfont"
	_ "golang.org/x/image/webp"

	"github.com/healthguard/assistant/internal/platform/inference"
)

// MaxAnnotatedSide bounds the longest edge of the returned image.
const MaxAnnotatedSide = 1280

const jpegQuality = 90

var palette = []color.RGBA{
	{255, 56, 56, 255},
	{255, 157, 151, 255},
	{255, 112, 31, 255},
	{255, 178, 29, 255},
	{207, 210, 49, 255},
	{72, 249, 10, 255},
	{146, 204, 23, 255},
	{61, 219, 134, 255},
	{26, 147, 52, 255},
	{0, 212, 187, 255},
}

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// annotate draws each box with its label onto img and returns a JPEG data
// URL. Images larger than MaxAnnotatedSide are scaled down first.
func annotate(img image.Image, boxes []inference.Box, names inference.ClassNames) (string, error) {
	img, scale := fit(img, MaxAnnotatedSide)

	dc := gg.NewContextForImage(img)
	w := float64(dc.Width())
	lineWidth := math.Max(2, math.Round(w/400))
	dc.SetFontFace(basicfont.Face7x13)

	for _, b := range boxes {
		x1, y1 := b.XYXY[0]*scale, b.XYXY[1]*scale
		x2, y2 := b.XYXY[2]*scale, b.XYXY[3]*scale
		c := palette[abs(b.Class)%len(palette)]

		dc.SetColor(c)
		dc.SetLineWidth(lineWidth)
		dc.DrawRectangle(x1, y1, x2-x1, y2-y1)
		dc.Stroke()

		label := fmt.Sprintf("%s %.2f", className(names, b.Class), b.Conf)
		tw, th := dc.MeasureString(label)
		ty := y1 - th - 4
		if ty < 0 {
			ty = y1
		}
		dc.DrawRectangle(x1, ty, tw+6, th+4)
		dc.Fill()
		dc.SetColor(color.White)
		dc.DrawString(label, x1+3, ty+th+1)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fit scales img so its longest side is at most limit. It returns the factor
// applied to coordinates.
func fit(img image.Image, limit int) (image.Image, float64) {
	b := img.Bounds()
	long := b.Dx()
	if b.Dy() > long {
		long = b.Dy()
	}
	if long <= limit || long == 0 {
		return img, 1
	}

	scale := float64(limit) / float64(long)
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst, scale
}

func className(names inference.ClassNames, idx int) string {
	if n := names.Lookup(idx); n != "" {
		return n
	}
	return strconv.Itoa(idx)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
