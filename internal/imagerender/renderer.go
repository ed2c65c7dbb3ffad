package imagerender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// Format is a raster output format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown image format")

// ParseFormat accepts png, jpeg or jpg; empty means PNG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Image is one rendered page.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
	Width       int
	Height      int
}

// Slots limits concurrent renders.
type Slots interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Options configures a Renderer.
type Options struct {
	// Scale relative to 72 DPI; 2 renders at 144 DPI.
	Scale          float64
	JPEGQuality    int
	ThumbnailWidth int
	Slots          Slots
}

// Renderer rasterises PDF pages with MuPDF.
type Renderer struct {
	scale          float64
	quality        int
	thumbnailWidth int
	slots          Slots
}

func New(opts Options) *Renderer {
	if opts.Scale <= 0 {
		opts.Scale = 2
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = 95
	}
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = 150
	}
	return &Renderer{scale: opts.Scale, quality: opts.JPEGQuality, thumbnailWidth: opts.ThumbnailWidth, slots: opts.Slots}
}

// Export renders the pages at indices (all pages when empty) in the given
// order. Indices outside the document are skipped. ctx is checked between
// pages.
func (r *Renderer) Export(ctx context.Context, data []byte, indices []int, format Format) ([]Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if len(indices) == 0 {
		indices = make([]int, total)
		for i := range indices {
			indices[i] = i
		}
	}

	dpi := 72 * r.scale
	images := make([]Image, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= total {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := doc.ImageDPI(idx, dpi)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", idx+1, err)
		}
		encoded, err := r.encode(img, format)
		if err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", idx+1, err)
		}
		bounds := img.Bounds()
		images = append(images, Image{
			Name:        fmt.Sprintf("page_%d.%s", idx+1, format),
			ContentType: format.ContentType(),
			Data:        encoded,
			Width:       bounds.Dx(),
			Height:      bounds.Dy(),
		})
		log.Debug().
			Int("page", idx+1).
			Int("width", bounds.Dx()).
			Int("height", bounds.Dy()).
			Str("format", string(format)).
			Int("size", len(encoded)).
			Msg("rendered page")
	}
	return images, nil
}

func (r *Renderer) encode(img image.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if format == JPEG {
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.quality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
