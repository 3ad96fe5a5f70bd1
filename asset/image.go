package asset

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Image errors.
var (
	// ErrUnsupportedFormat is returned when an image cannot be encoded in
	// the requested format.
	ErrUnsupportedFormat = errors.New("asset: unsupported image format")

	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("asset: empty image data")
)

// Image is a tightly packed, non-premultiplied RGBA8 image.
type Image struct {
	Width  int
	Height int
	Pix    []byte
}

// NewImage allocates a zeroed image.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]byte, width*height*4)}
}

// Stride returns the byte length of one row.
func (img *Image) Stride() int { return img.Width * 4 }

// FlipY mirrors the rows in place.
func (img *Image) FlipY() {
	stride := img.Stride()
	tmp := make([]byte, stride)
	for top, bottom := 0, img.Height-1; top < bottom; top, bottom = top+1, bottom-1 {
		a := img.Pix[top*stride : (top+1)*stride]
		b := img.Pix[bottom*stride : (bottom+1)*stride]
		copy(tmp, a)
		copy(a, b)
		copy(b, tmp)
	}
}

// DecodeImage decodes PNG, JPEG, GIF, BMP, TIFF or WebP data.
func DecodeImage(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyData
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return fromStdImage(img), nil
}

func fromStdImage(img image.Image) *Image {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := NewImage(width, height)

	if nrgba, ok := img.(*image.NRGBA); ok {
		for y := range height {
			start := y * nrgba.Stride
			copy(dst.Pix[y*dst.Stride():], nrgba.Pix[start:start+width*4])
		}
		return dst
	}

	for y := range height {
		for x := range width {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := y*dst.Stride() + x*4
			if a != 0 && a != 0xffff {
				// RGBA() is premultiplied.
				r = r * 0xffff / a
				g = g * 0xffff / a
				b = b * 0xffff / a
			}
			dst.Pix[off] = byte(r >> 8)
			dst.Pix[off+1] = byte(g >> 8)
			dst.Pix[off+2] = byte(b >> 8)
			dst.Pix[off+3] = byte(a >> 8)
		}
	}
	return dst
}

func (img *Image) toStdImage() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := range img.Height {
		copy(out.Pix[y*out.Stride:], img.Pix[y*img.Stride():(y+1)*img.Stride()])
	}
	return out
}

// EncodeImage encodes img for the file extension ext (".png", ".jpg",
// ".jpeg", ".bmp", ".tif", ".tiff").
func EncodeImage(img *Image, ext string) ([]byte, error) {
	var buf bytes.Buffer
	std := img.toStdImage()
	var err error
	switch strings.ToLower(ext) {
	case ".png":
		err = png.Encode(&buf, std)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(&buf, std, &jpeg.Options{Quality: 95})
	case ".bmp":
		err = bmp.Encode(&buf, std)
	case ".tif", ".tiff":
		err = tiff.Encode(&buf, std, nil)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}
