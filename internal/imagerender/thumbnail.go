package imagerender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/rs/zerolog/log"
)

// ErrPageOutOfRange is returned when a thumbnail is requested for a page the
// document does not have.
var ErrPageOutOfRange = errors.New("page out of range")

// Thumbnail renders page (zero-based) as a PNG that is width pixels wide, or
// the configured default when width <= 0.
//
// When ctx ends first Thumbnail returns ctx.Err() immediately. MuPDF
// cannot abort a render, so the worker checks ctx between steps and closes
// the document at the first step boundary after cancellation; a page
// render already under way finishes and is discarded.
func (r *Renderer) Thumbnail(ctx context.Context, data []byte, page, width int) ([]byte, error) {
	if width <= 0 {
		width = r.thumbnailWidth
	}
	release := func() {}
	if r.slots != nil {
		var err error
		if release, err = r.slots.Acquire(ctx, "thumbnail"); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		release()
		return nil, err
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		defer release()
		out, err := renderThumbnail(ctx, data, page, width)
		done <- result{out, err}
	}()

	select {
	case <-ctx.Done():
		log.Debug().Int("page", page+1).Msg("thumbnail cancelled")
		return nil, ctx.Err()
	case res := <-done:
		return res.data, res.err
	}
}

func renderThumbnail(ctx context.Context, data []byte, page, width int) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if page < 0 || page >= doc.NumPage() {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, page+1, doc.NumPage())
	}
	bounds, err := doc.Bound(page)
	if err != nil {
		return nil, fmt.Errorf("failed to measure page %d: %w", page+1, err)
	}
	dpi := 72.0
	if bounds.Dx() > 0 {
		dpi = 72 * float64(width) / float64(bounds.Dx())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := doc.ImageDPI(page, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page+1, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
