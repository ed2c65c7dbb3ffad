// Package pdfops implements the page and document operations of the
// workbench on top of pdfcpu. Every operation takes PDF bytes and returns
// new bytes; inputs are never modified and each call works on its own
// engine context.
package pdfops

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"
)

// Size is a page size in PDF units.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Document is the parsed view of a PDF: page geometry and document
// information, read once at load time.
type Document struct {
	pages     int
	sizes     []Size
	rotations []int
	meta      Metadata
}

var configOnce sync.Once

// newConfig returns a fresh relaxed-validation configuration. pdfcpu's user
// configuration directory is disabled so nothing is written to $HOME.
func newConfig() *model.Configuration {
	configOnce.Do(api.DisableConfigDir)
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func readContext(data []byte) (*model.Context, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), newConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadable, err)
	}
	return ctx, nil
}

func writeContext(ctx *model.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.WriteContext(ctx, &buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Load parses data and captures its page geometry and metadata.
func Load(data []byte) (*Document, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{
		pages:     ctx.PageCount,
		sizes:     make([]Size, 0, ctx.PageCount),
		rotations: make([]int, 0, ctx.PageCount),
		meta:      readInfo(ctx),
	}
	for nr := 1; nr <= ctx.PageCount; nr++ {
		_, _, attrs, err := ctx.PageDict(nr, false)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrUnreadable, nr, err)
		}
		var size Size
		rotate := 0
		if attrs != nil {
			if attrs.MediaBox != nil {
				size = Size{Width: attrs.MediaBox.Width(), Height: attrs.MediaBox.Height()}
			}
			rotate = attrs.Rotate
		}
		doc.sizes = append(doc.sizes, size)
		doc.rotations = append(doc.rotations, normalizeAngle(rotate))
	}
	log.Debug().Int("pages", doc.pages).Int("bytes", len(data)).Msg("pdf loaded")
	return doc, nil
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.pages }

// PageSizes returns the MediaBox size of each page, unrotated.
func (d *Document) PageSizes() []Size { return append([]Size(nil), d.sizes...) }

// Rotations returns each page's rotation in [0, 360).
func (d *Document) Rotations() []int { return append([]int(nil), d.rotations...) }

// Metadata returns the document information in display form.
func (d *Document) Metadata() Metadata { return d.meta }

// PageCount parses data and returns its page count.
func PageCount(data []byte) (int, error) {
	ctx, err := readContext(data)
	if err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

func normalizeAngle(a int) int { return ((a % 360) + 360) % 360 }
