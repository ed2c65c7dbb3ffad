// Package batch applies one action to many files, one after another,
// counting successes and failures instead of stopping at the first error.
package batch

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfplatypus/internal/metrics"
)

// Failure records why one item failed.
type Failure struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
	// Reason is Err's message, kept for JSON responses.
	Reason string `json:"reason"`
}

// Result is the outcome of a run.
type Result struct {
	Op        string    `json:"op"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Failures  []Failure `json:"failures,omitempty"`
}

// Notification is a user-facing message about a run.
type Notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Run calls fn for every item in order. An error or panic from fn counts
// the item as failed and the run moves on to the next item.
func Run[T any](op string, items []T, label func(T) string, fn func(T) error) Result {
	res := Result{Op: op}
	start := time.Now()
	for _, item := range items {
		name := label(item)
		err := call(fn, item)
		metrics.IncBatchItem(err == nil)
		if err != nil {
			res.Failed++
			res.Failures = append(res.Failures, Failure{Name: name, Err: err, Reason: err.Error()})
			log.Error().Err(err).Str("op", op).Str("file", name).Msg("batch item failed")
			continue
		}
		res.Succeeded++
	}
	log.Info().
		Str("op", op).
		Int("succeeded", res.Succeeded).
		Int("failed", res.Failed).
		Dur("took", time.Since(start)).
		Msg("batch finished")
	return res
}

func call[T any](fn func(T) error, item T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(item)
}

// Notifications builds the messages shown after a run. successFormat takes
// the success count; hint, when set, is appended to the failure message.
func (r Result) Notifications(successFormat, hint string) []Notification {
	var out []Notification
	if r.Succeeded > 0 {
		out = append(out, Notification{Kind: "success", Message: fmt.Sprintf(successFormat, r.Succeeded)})
	}
	if r.Failed > 0 {
		msg := fmt.Sprintf("Failed to process %d file(s).", r.Failed)
		if hint != "" {
			msg += " " + hint
		}
		out = append(out, Notification{Kind: "error", Message: msg})
	}
	return out
}
