package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfplatypus/internal/batch"
	"github.com/local/pdfplatypus/internal/export"
	"github.com/local/pdfplatypus/internal/imagerender"
	"github.com/local/pdfplatypus/internal/metrics"
	"github.com/local/pdfplatypus/internal/pagerange"
	"github.com/local/pdfplatypus/internal/pdfops"
	"github.com/local/pdfplatypus/internal/session"
)

const (
	updatedFormat   = "Updated %d file(s)!"
	convertedFormat = "Converted images for %d file(s)!"
	pagesHint       = "Check inputs."
)

// Merge concatenates every output file, in export order, into a single
// merged.pdf that replaces them.
func (o *Orchestrator) Merge() (Outcome, error) {
	var out Outcome
	err := o.deps.Store.Exclusive(func() (err error) {
		start := time.Now()
		defer func() { metrics.ObserveOperation("merge", err, time.Since(start)) }()

		files := o.deps.Store.OutputFiles()
		if len(files) < 2 {
			return ErrMergeNeedsTwo
		}
		sources := make([]pdfops.Source, len(files))
		for i, f := range files {
			sources[i] = pdfops.Source{Name: f.Name, Data: f.Data}
		}
		data, err := pdfops.Merge(sources)
		if err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		rec, err := o.deps.Store.ConsolidateOutputToMerge(data, session.DefaultMergeName)
		if err != nil {
			return err
		}
		o.forget(ids(files)...)
		log.Info().Str("id", rec.ID).Int("sources", len(files)).Int("pages", rec.PageCount).Msg("merged outputs")
		out = Outcome{Succeeded: 1, Notifications: []batch.Notification{{
			Kind:    "success",
			Message: "PDFs merged into one result! Check the Export section.",
		}}}
		return nil
	})
	return out, err
}

// Split keeps only the pages named by expr.
func (o *Orchestrator) Split(target, expr string) (Outcome, error) {
	files, err := o.Targets(target, false)
	if err != nil {
		return Outcome{}, err
	}
	res := o.update("split", files, func(f session.FileRecord) ([]byte, error) {
		indices := pagerange.Parse(expr, f.PageCount)
		if len(indices) == 0 {
			return nil, pdfops.ErrInvalidRange
		}
		return pdfops.Extract(f.Data, indices)
	})
	return outcomeOf(res, res.Notifications(updatedFormat, pagesHint)), nil
}

// DeletePages removes the pages named by expr. At least one page must
// remain.
func (o *Orchestrator) DeletePages(target, expr string) (Outcome, error) {
	files, err := o.Targets(target, false)
	if err != nil {
		return Outcome{}, err
	}
	res := o.update("delete", files, func(f session.FileRecord) ([]byte, error) {
		return pdfops.Delete(f.Data, pagerange.Parse(expr, f.PageCount))
	})
	return outcomeOf(res, res.Notifications(updatedFormat, pagesHint)), nil
}

// Rotate turns the pages named by expr, or every page when expr is empty
// or "all", by angle degrees clockwise.
func (o *Orchestrator) Rotate(target, expr string, angle int) (Outcome, error) {
	files, err := o.Targets(target, true)
	if err != nil {
		return Outcome{}, err
	}
	res := o.update("rotate", files, func(f session.FileRecord) ([]byte, error) {
		return pdfops.Rotate(f.Data, pagerange.ParseOrAll(expr, f.PageCount), angle)
	})
	return outcomeOf(res, res.Notifications(updatedFormat, pagesHint)), nil
}

// Reorder puts the pages of one file in order, given as zero-based page
// indices.
func (o *Orchestrator) Reorder(target string, order []int) (Outcome, error) {
	files, err := o.Targets(target, false)
	if err != nil {
		return Outcome{}, err
	}
	res := o.update("reorder", files, func(f session.FileRecord) ([]byte, error) {
		return pdfops.Reorder(f.Data, order)
	})
	var notes []batch.Notification
	if res.Succeeded > 0 {
		notes = append(notes, batch.Notification{Kind: "success", Message: "Pages reordered!"})
	}
	if res.Failed > 0 {
		notes = append(notes, batch.Notification{Kind: "error", Message: "Failed to reorder pages."})
	}
	return outcomeOf(res, notes), nil
}

// Images renders pages of the target files. The download is nil when no
// file produced an image. A single image is returned as is; anything more
// is bundled into a ZIP.
func (o *Orchestrator) Images(ctx context.Context, target, expr, format string) (*Download, Outcome, error) {
	f, err := imagerender.ParseFormat(format)
	if err != nil {
		return nil, Outcome{}, err
	}
	files, err := o.Targets(target, true)
	if err != nil {
		return nil, Outcome{}, err
	}

	type rendered struct {
		file   session.FileRecord
		images []imagerender.Image
	}
	var all []rendered
	start := time.Now()
	res := batch.Run("images", files, fileName, func(file session.FileRecord) error {
		var indices []int
		if !pagerange.IsAll(expr) {
			if indices = pagerange.Parse(expr, file.PageCount); len(indices) == 0 {
				return pdfops.ErrInvalidRange
			}
		}
		images, err := o.deps.Renderer.Export(ctx, file.Data, indices, f)
		if err != nil {
			return err
		}
		if len(images) == 0 {
			return pdfops.ErrNoImages
		}
		all = append(all, rendered{file, images})
		return nil
	})
	metrics.ObserveOperation("images", resultErr(res), time.Since(start))
	out := outcomeOf(res, res.Notifications(convertedFormat, pagesHint))

	switch {
	case len(all) == 0:
		return nil, out, nil
	case len(all) == 1 && len(all[0].images) == 1:
		img := all[0].images[0]
		return &Download{
			Name:        export.ImageName(all[0].file.Name, img.Name),
			ContentType: img.ContentType,
			Data:        img.Data,
		}, out, nil
	}

	var entries []export.Entry
	for _, r := range all {
		for _, img := range r.images {
			entries = append(entries, export.Entry{Name: export.ImageName(r.file.Name, img.Name), Data: img.Data})
		}
	}
	name := export.AllImagesName
	if len(all) == 1 {
		name = export.ImagesArchiveName(all[0].file.Name)
	}
	zipped, err := export.Zip(entries)
	if err != nil {
		return nil, out, fmt.Errorf("bundle images: %w", err)
	}
	return &Download{Name: name, ContentType: export.ZipContentType, Data: zipped}, out, nil
}

func ids(files []session.FileRecord) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.ID
	}
	return out
}
