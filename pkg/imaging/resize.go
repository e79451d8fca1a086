package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
)

// JPEGQuality is used when a downscaled JPEG is re-encoded
const JPEGQuality = 90

// Prepared is the payload sent to a vision model
type Prepared struct {
	Data     []byte
	MIMEType string
	Width    int
	Height   int
	Resized  bool
}

// FitWithin returns the size of a w x h box scaled down so its longest side is at most maxDim.
// Sizes already within the limit, and maxDim <= 0, are returned unchanged.
func FitWithin(w, h, maxDim int) (int, int) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		if nh < 1 {
			nh = 1
		}
		return maxDim, nh
	}
	nw := w * maxDim / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxDim
}

// Downscale resizes img with Catmull-Rom so that neither side exceeds maxDim.
// The second return value is false when no resize was needed.
func Downscale(img image.Image, maxDim int) (image.Image, bool) {
	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), maxDim)
	if w == b.Dx() && h == b.Dy() {
		return img, false
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst, true
}

// Prepare returns the bytes to upload for an image. When the decoded image fits
// within maxDim the original bytes are passed through untouched; otherwise the
// image is downscaled and re-encoded (JPEG stays JPEG, everything else becomes PNG).
func Prepare(original []byte, img image.Image, format string, maxDim int) (*Prepared, error) {
	b := img.Bounds()
	scaled, resized := Downscale(img, maxDim)
	if !resized {
		return &Prepared{
			Data:     original,
			MIMEType: "image/" + format,
			Width:    b.Dx(),
			Height:   b.Dy(),
		}, nil
	}

	var buf bytes.Buffer
	mimeType := "image/png"
	var err error
	if format == "jpeg" {
		mimeType = "image/jpeg"
		err = jpeg.Encode(&buf, scaled, &jpeg.Options{Quality: JPEGQuality})
	} else {
		err = png.Encode(&buf, scaled)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode resized image: %w", err)
	}

	sb := scaled.Bounds()
	return &Prepared{
		Data:     buf.Bytes(),
		MIMEType: mimeType,
		Width:    sb.Dx(),
		Height:   sb.Dy(),
		Resized:  true,
	}, nil
}
