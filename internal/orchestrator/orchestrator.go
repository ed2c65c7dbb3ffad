// Package orchestrator turns user actions into work on the session: it
// resolves which output files an action targets, runs the operation over
// them through the batch loop and stores the results.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/local/pdfplatypus/internal/autosave"
	"github.com/local/pdfplatypus/internal/batch"
	"github.com/local/pdfplatypus/internal/imagerender"
	"github.com/local/pdfplatypus/internal/metrics"
	"github.com/local/pdfplatypus/internal/pdfops"
	"github.com/local/pdfplatypus/internal/session"
)

// Renderer rasterises pages.
type Renderer interface {
	Export(ctx context.Context, data []byte, indices []int, format imagerender.Format) ([]imagerender.Image, error)
	Thumbnail(ctx context.Context, data []byte, page, width int) ([]byte, error)
}

type Dependencies struct {
	Store    *session.Store
	Renderer Renderer
	Autosave *autosave.Debouncer
}

type Orchestrator struct {
	deps Dependencies
	meta *metadataState
}

func New(deps Dependencies) *Orchestrator {
	if deps.Autosave == nil {
		deps.Autosave = autosave.New(autosave.DefaultDelay)
	}
	return &Orchestrator{deps: deps, meta: newMetadataState()}
}

var (
	ErrMergeNeedsTwo  = errors.New("please upload at least 2 PDF files to merge")
	ErrNoTarget       = errors.New("no output file to work on")
	ErrSingleFileOnly = errors.New("this action supports one file at a time")
	ErrUnknownField   = errors.New("unknown metadata field")
	ErrInvalidDate    = errors.New("invalid date")
	ErrInvalidPage    = errors.New("invalid page number")
)

// IsValidation reports whether err was caused by the request rather than
// by a document or the engine.
func IsValidation(err error) bool {
	if pdfops.IsValidation(err) {
		return true
	}
	for _, target := range []error{
		ErrMergeNeedsTwo, ErrSingleFileOnly, ErrUnknownField, ErrInvalidDate, ErrInvalidPage,
		session.ErrNotPermutation, session.ErrUnknownTab, session.ErrUnknownScope,
		imagerender.ErrUnknownFormat, imagerender.ErrPageOutOfRange,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err names a file the session does not have.
func IsNotFound(err error) bool {
	return errors.Is(err, session.ErrNotFound) || errors.Is(err, ErrNoTarget)
}

// Outcome is the aggregate result of an action over one or more files.
type Outcome struct {
	Succeeded     int                  `json:"succeeded"`
	Failed        int                  `json:"failed"`
	Failures      []batch.Failure      `json:"failures,omitempty"`
	Notifications []batch.Notification `json:"notifications"`
}

func outcomeOf(res batch.Result, notes []batch.Notification) Outcome {
	if notes == nil {
		notes = []batch.Notification{}
	}
	return Outcome{Succeeded: res.Succeeded, Failed: res.Failed, Failures: res.Failures, Notifications: notes}
}

// Store exposes the session for read-only handlers.
func (o *Orchestrator) Store() *session.Store { return o.deps.Store }

// update runs fn over files under the session lock and stores each result
// as the file's new bytes.
func (o *Orchestrator) update(op string, files []session.FileRecord, fn func(session.FileRecord) ([]byte, error)) batch.Result {
	var res batch.Result
	_ = o.deps.Store.Exclusive(func() error {
		start := time.Now()
		res = batch.Run(op, files, fileName, func(f session.FileRecord) error {
			out, err := fn(f)
			if err != nil {
				return err
			}
			return o.deps.Store.UpdateOutputFile(f.ID, out, "")
		})
		metrics.ObserveOperation(op, resultErr(res), time.Since(start))
		return nil
	})
	return res
}

func fileName(f session.FileRecord) string { return f.Name }

// resultErr condenses a batch result for the operation metrics: a run with
// any failure counts as failed.
func resultErr(res batch.Result) error {
	if res.Failed > 0 {
		return res.Failures[0].Err
	}
	return nil
}
