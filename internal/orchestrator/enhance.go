package orchestrator

import (
	"github.com/local/pdfplatypus/internal/batch"
	"github.com/local/pdfplatypus/internal/export"
	"github.com/local/pdfplatypus/internal/metrics"
	"github.com/local/pdfplatypus/internal/pdfops"
	"github.com/local/pdfplatypus/internal/session"
)

const appliedFormat = "Applied changes to %d file(s)!"

// Watermark stamps text diagonally across every page of the target files.
func (o *Orchestrator) Watermark(target, text string, opacity float64) (Outcome, error) {
	files, err := o.Targets(target, true)
	if err != nil {
		return Outcome{}, err
	}
	res := o.update("watermark", files, func(f session.FileRecord) ([]byte, error) {
		return pdfops.Watermark(f.Data, text, opacity)
	})
	return outcomeOf(res, res.Notifications(appliedFormat, "")), nil
}

// PageNumbers numbers every page of the target files at position.
func (o *Orchestrator) PageNumbers(target, position string) (Outcome, error) {
	pos, err := pdfops.ParsePosition(position)
	if err != nil {
		return Outcome{}, err
	}
	files, err := o.Targets(target, true)
	if err != nil {
		return Outcome{}, err
	}
	res := o.update("page_numbers", files, func(f session.FileRecord) ([]byte, error) {
		return pdfops.PageNumbers(f.Data, pos)
	})
	return outcomeOf(res, res.Notifications(appliedFormat, "")), nil
}

// Compress rewrites the target files compactly. For a single file the
// notification reports the size change instead of a count.
func (o *Orchestrator) Compress(target string) (Outcome, error) {
	files, err := o.Targets(target, true)
	if err != nil {
		return Outcome{}, err
	}
	var before, after int64
	res := o.update("compress", files, func(f session.FileRecord) ([]byte, error) {
		r, err := pdfops.Compress(f.Data)
		if err != nil {
			return nil, err
		}
		metrics.AddBytesSaved(r.Before, r.After)
		before, after = f.Size, int64(len(r.Data))
		return r.Data, nil
	})

	notes := res.Notifications(appliedFormat, "")
	if len(files) == 1 && res.Succeeded == 1 {
		notes = []batch.Notification{{Kind: "success", Message: export.SavingsMessage(before, after)}}
	}
	return outcomeOf(res, notes), nil
}
