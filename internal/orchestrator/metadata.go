package orchestrator

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfplatypus/internal/metrics"
	"github.com/local/pdfplatypus/internal/pdfops"
	"github.com/local/pdfplatypus/internal/session"
)

// metadataFields are the editable fields, by their JSON names.
var metadataFields = []string{"title", "author", "subject", "keywords", "creator", "producer", "creationDate", "modificationDate"}

// metadataState is the editor state per output file: the metadata the file
// had when it was first opened in the editor, and edits not yet written.
type metadataState struct {
	mu       sync.Mutex
	baseline map[string]pdfops.Metadata
	// drafts are replaced on every edit; pointer identity tells a save
	// whether a newer edit arrived while it was writing.
	drafts map[string]*pdfops.Metadata
}

func newMetadataState() *metadataState {
	return &metadataState{baseline: map[string]pdfops.Metadata{}, drafts: map[string]*pdfops.Metadata{}}
}

// baselineFor must be called with mu held.
func (m *metadataState) baselineFor(rec session.FileRecord) pdfops.Metadata {
	base, ok := m.baseline[rec.ID]
	if !ok {
		base = rec.Metadata
		m.baseline[rec.ID] = base
	}
	return base
}

// current must be called with mu held.
func (m *metadataState) current(rec session.FileRecord) pdfops.Metadata {
	if d, ok := m.drafts[rec.ID]; ok {
		return *d
	}
	return rec.Metadata
}

func (m *metadataState) drop(id string) {
	m.mu.Lock()
	delete(m.baseline, id)
	delete(m.drafts, id)
	m.mu.Unlock()
}

func (m *metadataState) reset() {
	m.mu.Lock()
	m.baseline = map[string]pdfops.Metadata{}
	m.drafts = map[string]*pdfops.Metadata{}
	m.mu.Unlock()
}

// MetadataView is the editor's view of one output file.
type MetadataView struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Metadata pdfops.Metadata `json:"metadata"`
	Baseline pdfops.Metadata `json:"baseline"`
	Modified []string        `json:"modified"`
	Pending  bool            `json:"pending"`
}

// MetadataPatch changes the non-nil fields. Dates take RFC 3339 or the
// forms 2006-01-02T15:04[:05] and 2006-01-02 in local time; an empty
// string removes the date.
type MetadataPatch struct {
	Title        *string `json:"title"`
	Author       *string `json:"author"`
	Subject      *string `json:"subject"`
	Keywords     *string `json:"keywords"`
	Creator      *string `json:"creator"`
	Producer     *string `json:"producer"`
	CreationDate *string `json:"creationDate"`
	ModDate      *string `json:"modificationDate"`
}

func (p MetadataPatch) apply(m *pdfops.Metadata) error {
	next := *m
	for field, v := range map[string]*string{
		"title": p.Title, "author": p.Author, "subject": p.Subject,
		"keywords": p.Keywords, "creator": p.Creator, "producer": p.Producer,
	} {
		if v != nil {
			*textField(&next, field) = *v
		}
	}
	for field, v := range map[string]*string{"creationDate": p.CreationDate, "modificationDate": p.ModDate} {
		if v == nil {
			continue
		}
		t, err := parseDateInput(*v)
		if err != nil {
			return err
		}
		*dateField(&next, field) = t
	}
	*m = next
	return nil
}

// Metadata returns the editor view of output file id. The first call for
// a file captures its baseline.
func (o *Orchestrator) Metadata(id string) (MetadataView, error) {
	rec, ok := o.deps.Store.Output(id)
	if !ok {
		return MetadataView{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	return o.metadataView(rec), nil
}

// EditMetadata applies patch to the file's draft and schedules a save. A
// later edit within the autosave delay replaces this one.
func (o *Orchestrator) EditMetadata(id string, patch MetadataPatch) (MetadataView, error) {
	rec, ok := o.deps.Store.Output(id)
	if !ok {
		return MetadataView{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	o.meta.mu.Lock()
	o.meta.baselineFor(rec)
	draft := o.meta.current(rec)
	if err := patch.apply(&draft); err != nil {
		o.meta.mu.Unlock()
		return MetadataView{}, err
	}
	o.meta.drafts[id] = &draft
	o.deps.Autosave.Schedule(id, func() { o.autosaveMetadata(id) })
	o.meta.mu.Unlock()
	return o.metadataView(rec), nil
}

// FlushMetadata writes the pending edit for id now. It reports whether
// there was one.
func (o *Orchestrator) FlushMetadata(id string) (bool, error) {
	if _, ok := o.deps.Store.Output(id); !ok {
		return false, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	return o.deps.Autosave.Flush(id), nil
}

// ResetMetadata restores field, or every field when field is empty, to the
// baseline and saves at once.
func (o *Orchestrator) ResetMetadata(id, field string) (MetadataView, error) {
	rec, ok := o.deps.Store.Output(id)
	if !ok {
		return MetadataView{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	o.meta.mu.Lock()
	base := o.meta.baselineFor(rec)
	draft := o.meta.current(rec)
	if field == "" {
		draft = base
	} else if err := copyField(&draft, base, field); err != nil {
		o.meta.mu.Unlock()
		return MetadataView{}, err
	}
	o.meta.drafts[id] = &draft
	o.meta.mu.Unlock()

	o.deps.Autosave.Cancel(id)
	if err := o.saveMetadata(id); err != nil {
		return MetadataView{}, err
	}
	rec, ok = o.deps.Store.Output(id)
	if !ok {
		return MetadataView{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	return o.metadataView(rec), nil
}

// Modified reports whether field differs from the baseline.
func (o *Orchestrator) Modified(id, field string) (bool, error) {
	if textField(&pdfops.Metadata{}, field) == nil && dateField(&pdfops.Metadata{}, field) == nil {
		return false, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	view, err := o.Metadata(id)
	if err != nil {
		return false, err
	}
	return fieldModified(view.Baseline, view.Metadata, field), nil
}

func (o *Orchestrator) metadataView(rec session.FileRecord) MetadataView {
	o.meta.mu.Lock()
	defer o.meta.mu.Unlock()
	base := o.meta.baselineFor(rec)
	cur := o.meta.current(rec)
	modified := []string{}
	for _, f := range metadataFields {
		if fieldModified(base, cur, f) {
			modified = append(modified, f)
		}
	}
	return MetadataView{
		ID:       rec.ID,
		Name:     rec.Name,
		Metadata: cur,
		Baseline: base,
		Modified: modified,
		Pending:  o.deps.Autosave.Pending(rec.ID),
	}
}

func (o *Orchestrator) autosaveMetadata(id string) {
	if err := o.saveMetadata(id); err != nil {
		log.Warn().Err(err).Str("id", id).Msg("metadata autosave failed")
	}
}

// saveMetadata writes the latest draft for id into the file. The draft is
// read when the save runs, not when it was scheduled.
func (o *Orchestrator) saveMetadata(id string) error {
	return o.deps.Store.Exclusive(func() (err error) {
		o.meta.mu.Lock()
		draft, ok := o.meta.drafts[id]
		o.meta.mu.Unlock()
		if !ok {
			return nil
		}

		start := time.Now()
		defer func() { metrics.ObserveOperation("metadata", err, time.Since(start)) }()
		rec, ok := o.deps.Store.Output(id)
		if !ok {
			return fmt.Errorf("%w: %s", session.ErrNotFound, id)
		}
		data, err := pdfops.SetMetadata(rec.Data, *draft)
		if err != nil {
			return fmt.Errorf("save metadata for %s: %w", rec.Name, err)
		}
		if err := o.deps.Store.UpdateOutputFile(id, data, ""); err != nil {
			return err
		}

		o.meta.mu.Lock()
		if o.meta.drafts[id] == draft && !o.deps.Autosave.Pending(id) {
			delete(o.meta.drafts, id)
		}
		o.meta.mu.Unlock()
		log.Debug().Str("id", id).Str("file", rec.Name).Msg("metadata saved")
		return nil
	})
}

func textField(m *pdfops.Metadata, field string) *string {
	switch field {
	case "title":
		return &m.Title
	case "author":
		return &m.Author
	case "subject":
		return &m.Subject
	case "keywords":
		return &m.Keywords
	case "creator":
		return &m.Creator
	case "producer":
		return &m.Producer
	}
	return nil
}

func dateField(m *pdfops.Metadata, field string) **time.Time {
	switch field {
	case "creationDate":
		return &m.CreationDate
	case "modificationDate":
		return &m.ModDate
	}
	return nil
}

func copyField(dst *pdfops.Metadata, src pdfops.Metadata, field string) error {
	if p := textField(dst, field); p != nil {
		*p = *textField(&src, field)
		return nil
	}
	if p := dateField(dst, field); p != nil {
		*p = *dateField(&src, field)
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownField, field)
}

func fieldModified(base, cur pdfops.Metadata, field string) bool {
	if p := textField(&base, field); p != nil {
		return *p != *textField(&cur, field)
	}
	a, b := *dateField(&base, field), *dateField(&cur, field)
	if a == nil || b == nil {
		return a != b
	}
	return !a.Equal(*b)
}

func parseDateInput(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
