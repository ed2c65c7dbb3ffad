package pdfops

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rs/zerolog/log"
)

// DefaultOpacity is used for watermarks when the caller has no preference.
const DefaultOpacity = 0.5

// Position places page numbers.
type Position string

const (
	BottomCenter Position = "bottom-center"
	BottomRight  Position = "bottom-right"
	TopCenter    Position = "top-center"
	TopRight     Position = "top-right"
)

// page number layout: distance from the page edges and font size
const (
	numberMargin = 30
	numberSize   = 12
)

// anchor and offset in pdfcpu's stamp description terms
var positions = map[Position]struct{ anchor, offset string }{
	BottomCenter: {"bc", fmt.Sprintf("0 %d", numberMargin)},
	BottomRight:  {"br", fmt.Sprintf("-%d %d", numberMargin, numberMargin)},
	TopCenter:    {"tc", fmt.Sprintf("0 -%d", numberMargin)},
	TopRight:     {"tr", fmt.Sprintf("-%d -%d", numberMargin, numberMargin)},
}

// ParsePosition maps user input to a Position; empty means BottomCenter.
func ParsePosition(s string) (Position, error) {
	p := Position(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return BottomCenter, nil
	}
	if _, ok := positions[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	return p, nil
}

// Watermark stamps text diagonally across the centre of every page. The
// font size follows each page's shorter side.
func Watermark(data []byte, text string, opacity float64) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyWatermark
	}
	doc, err := Load(data)
	if err != nil {
		return nil, err
	}
	opacity = math.Min(1, math.Max(0, opacity))

	// pages of equal size share one watermark
	bySize := make(map[int]*model.Watermark)
	byPage := make(map[int]*model.Watermark, doc.PageCount())
	for i, s := range doc.PageSizes() {
		points := watermarkPoints(s)
		wm, ok := bySize[points]
		if !ok {
			desc := fmt.Sprintf("fontname:Helvetica-Bold, points:%d, scalefactor:1 abs, rotation:45, fillcolor:#808080, opacity:%.2f, position:c",
				points, opacity)
			wm, err = api.TextWatermark(text, desc, true, false, types.POINTS)
			if err != nil {
				return nil, fmt.Errorf("watermark: %w", err)
			}
			bySize[points] = wm
		}
		byPage[i+1] = wm
	}

	var buf bytes.Buffer
	if err := api.AddWatermarksMap(bytes.NewReader(data), &buf, byPage, newConfig()); err != nil {
		return nil, fmt.Errorf("watermark: %w", err)
	}
	return keepInfo(data, buf.Bytes())
}

func watermarkPoints(s Size) int {
	return max(1, int(math.Round(math.Min(s.Width, s.Height)/10)))
}

// PageNumbers writes the 1-based page number on every page.
func PageNumbers(data []byte, pos Position) ([]byte, error) {
	p, ok := positions[pos]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPosition, pos)
	}
	desc := fmt.Sprintf("fontname:Helvetica, points:%d, scalefactor:1 abs, rotation:0, fillcolor:#000000, opacity:1, position:%s, offset:%s",
		numberSize, p.anchor, p.offset)
	// %p is replaced by the current page number
	wm, err := api.TextWatermark("%p", desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("page numbers: %w", err)
	}
	var buf bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(data), &buf, nil, wm, newConfig()); err != nil {
		return nil, fmt.Errorf("page numbers: %w", err)
	}
	return keepInfo(data, buf.Bytes())
}

// CompressResult reports the outcome of Compress. After can exceed Before.
type CompressResult struct {
	Data   []byte
	Before int
	After  int
}

// Savings returns the size reduction in percent, negative when the file grew.
func (r CompressResult) Savings() float64 {
	if r.Before == 0 {
		return 0
	}
	return (1 - float64(r.After)/float64(r.Before)) * 100
}

// Compress deduplicates resources and rewrites the file with object and
// cross-reference streams.
func Compress(data []byte) (CompressResult, error) {
	conf := newConfig()
	conf.WriteObjectStream = true
	conf.WriteXRefStream = true
	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, conf); err != nil {
		return CompressResult{}, fmt.Errorf("compress: %w", err)
	}
	out, err := keepInfo(data, buf.Bytes())
	if err != nil {
		return CompressResult{}, fmt.Errorf("compress: %w", err)
	}
	res := CompressResult{Data: out, Before: len(data), After: len(out)}
	log.Debug().Int("before", res.Before).Int("after", res.After).Float64("savings_pct", res.Savings()).Msg("pdf compressed")
	return res, nil
}
