package orchestrator

import (
	"github.com/local/pdfplatypus/internal/session"
)

// AddFiles admits uploads into the session.
func (o *Orchestrator) AddFiles(uploads []session.Upload) []session.FileRecord {
	return o.deps.Store.AddFiles(uploads)
}

// RemoveFile removes id from scope and drops any unsaved metadata edits
// for it.
func (o *Orchestrator) RemoveFile(id string, scope session.Scope) error {
	return o.deps.Store.Exclusive(func() error {
		if err := o.deps.Store.RemoveFile(id, scope); err != nil {
			return err
		}
		o.forget(id)
		return nil
	})
}

// ClearAll empties the session and discards pending metadata saves.
func (o *Orchestrator) ClearAll() {
	_ = o.deps.Store.Exclusive(func() error {
		o.deps.Autosave.Stop()
		o.meta.reset()
		o.deps.Store.ClearAll()
		return nil
	})
}

// forget cancels pending saves and drops editor state for files that left
// the output list.
func (o *Orchestrator) forget(ids ...string) {
	for _, id := range ids {
		o.deps.Autosave.Cancel(id)
		o.meta.drop(id)
	}
}
