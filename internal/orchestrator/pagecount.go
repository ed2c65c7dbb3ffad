package orchestrator

import (
	"fmt"

	"github.com/local/pdfplatypus/internal/session"
)

// PageInfo describes one page of an output file, as shown by the visual
// reorder view.
type PageInfo struct {
	Number   int     `json:"number"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Rotation int     `json:"rotation"`
}

// Pages lists the pages of output file id. Sizes are in points, before
// rotation.
func (o *Orchestrator) Pages(id string) ([]PageInfo, error) {
	rec, ok := o.deps.Store.Output(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	sizes := rec.Doc.PageSizes()
	rotations := rec.Doc.Rotations()
	out := make([]PageInfo, rec.PageCount)
	for i := range out {
		out[i] = PageInfo{Number: i + 1, Width: sizes[i].Width, Height: sizes[i].Height, Rotation: rotations[i]}
	}
	return out, nil
}
