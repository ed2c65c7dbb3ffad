// Package session holds the files a user is working on: the uploaded
// inputs, the output (export) list derived from them, the selection and the
// active tab.
package session

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfplatypus/internal/metrics"
)

// DefaultMaxFileSize is the upload cap when Options.MaxFileSize is unset.
const DefaultMaxFileSize = 50 << 20

// DefaultMergeName names the consolidated file when the caller gives none.
const DefaultMergeName = "merged.pdf"

// Acceptor decides whether an upload is a PDF.
type Acceptor interface {
	AcceptPDF(data []byte, name, declared string) bool
}

// Options configures a Store.
type Options struct {
	MaxFileSize int64
	Acceptor    Acceptor
}

// Store is the session state. All methods are safe for concurrent use;
// Exclusive serialises whole user actions on top of that.
type Store struct {
	op sync.Mutex

	mu       sync.RWMutex
	input    []*FileRecord
	output   []*FileRecord
	selected string
	tab      Tab

	maxFileSize int64
	accept      Acceptor
}

func New(opts Options) *Store {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	return &Store{tab: TabMetadata, maxFileSize: opts.MaxFileSize, accept: opts.Acceptor}
}

// Exclusive runs fn while holding the session's action lock, so that
// multi-step actions such as batch runs never interleave.
func (s *Store) Exclusive(fn func() error) error {
	s.op.Lock()
	defer s.op.Unlock()
	return fn()
}

// AddFiles admits every upload that is a readable PDF within the size cap
// and appends it to both collections. Rejected uploads are logged and
// skipped. If there were no output files before, the first admitted file
// becomes the selection.
func (s *Store) AddFiles(uploads []Upload) []FileRecord {
	// each collection owns its bytes and parsed handle
	type pair struct{ in, out *FileRecord }
	var added []pair
	for _, u := range uploads {
		if int64(len(u.Data)) > s.maxFileSize {
			log.Warn().Str("file", u.Name).Int("size", len(u.Data)).Int64("max", s.maxFileSize).Msg("upload skipped: too large")
			metrics.IncUploadRejected("too_large")
			continue
		}
		if s.accept != nil && !s.accept.AcceptPDF(u.Data, u.Name, u.ContentType) {
			log.Warn().Str("file", u.Name).Str("content_type", u.ContentType).Msg("upload skipped: not a pdf")
			metrics.IncUploadRejected("not_pdf")
			continue
		}
		in, err := newRecord("file-"+uuid.NewString(), u.Name, u.Data)
		if err != nil {
			log.Warn().Err(err).Str("file", u.Name).Msg("upload skipped: unreadable")
			metrics.IncUploadRejected("unreadable")
			continue
		}
		out, err := newRecord(in.ID, u.Name, bytes.Clone(u.Data))
		if err != nil {
			log.Warn().Err(err).Str("file", u.Name).Msg("upload skipped: unreadable")
			continue
		}
		added = append(added, pair{in, out})
	}
	if len(added) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	wasEmpty := len(s.output) == 0
	for _, p := range added {
		s.input = append(s.input, p.in)
		s.output = append(s.output, p.out)
		log.Info().Str("id", p.in.ID).Str("file", p.in.Name).Int("pages", p.in.PageCount).Msg("file added")
	}
	if wasEmpty {
		s.selected = added[0].out.ID
	}
	s.recordCounts()
	outs := make([]*FileRecord, len(added))
	for i, p := range added {
		outs[i] = p.out
	}
	return values(outs)
}

// RemoveFile deletes id from scope. Removing an input also removes the
// output with the same id; removing an output leaves the inputs alone.
func (s *Store) RemoveFile(id string, scope Scope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found bool
	switch scope {
	case ScopeInput:
		s.input, found = without(s.input, id)
		s.output, _ = without(s.output, id)
	case ScopeOutput:
		s.output, found = without(s.output, id)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if s.selected == id {
		s.selected = ""
		if len(s.output) > 0 {
			s.selected = s.output[0].ID
		}
	}
	log.Info().Str("id", id).Str("scope", string(scope)).Msg("file removed")
	s.recordCounts()
	return nil
}

// UpdateOutputFile replaces the bytes of output id. newName, when not
// empty, renames the file. If data does not parse the record is left as it
// was and the error is returned.
func (s *Store) UpdateOutputFile(id string, data []byte, newName string) error {
	s.mu.RLock()
	cur, _ := find(s.output, id)
	s.mu.RUnlock()
	if cur == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	name := cur.Name
	if newName != "" {
		name = newName
	}
	rec, err := newRecord(id, name, data)
	if err != nil {
		log.Warn().Err(err).Str("id", id).Str("file", name).Msg("output update rejected")
		return fmt.Errorf("update %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, i := find(s.output, id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.output[i] = rec
	log.Debug().Str("id", id).Str("file", name).Int64("size", rec.Size).Int("pages", rec.PageCount).Msg("output updated")
	return nil
}

// ConsolidateOutputToMerge replaces every output file with a single new
// record built from data and selects it. Inputs are not touched.
func (s *Store) ConsolidateOutputToMerge(data []byte, name string) (FileRecord, error) {
	if name == "" {
		name = DefaultMergeName
	}
	rec, err := newRecord("merged-"+uuid.NewString(), name, data)
	if err != nil {
		log.Warn().Err(err).Str("file", name).Msg("merge result rejected")
		return FileRecord{}, fmt.Errorf("consolidate %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	replaced := len(s.output)
	s.output = []*FileRecord{rec}
	s.selected = rec.ID
	log.Info().Str("id", rec.ID).Int("replaced", replaced).Int("pages", rec.PageCount).Msg("outputs consolidated")
	s.recordCounts()
	return *rec, nil
}

// ReorderOutputFiles puts the output list in the order of ids, which must
// be a permutation of the current output ids.
func (s *Store) ReorderOutputFiles(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(ids) != len(s.output) {
		return ErrNotPermutation
	}
	next := make([]*FileRecord, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		rec, _ := find(s.output, id)
		if rec == nil || seen[id] {
			return ErrNotPermutation
		}
		seen[id] = true
		next = append(next, rec)
	}
	s.output = next
	return nil
}

// ClearAll drops every file and the selection.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input, s.output, s.selected = nil, nil, ""
	log.Info().Msg("session cleared")
	s.recordCounts()
}

// Select makes id the selected output file; an empty id clears the selection.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id != "" {
		if rec, _ := find(s.output, id); rec == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	s.selected = id
	return nil
}

// Selected returns the selected output file, selecting the first output
// file when nothing is selected yet.
func (s *Store) Selected() (FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, _ := find(s.output, s.selected); rec != nil {
		return *rec, true
	}
	if len(s.output) == 0 {
		s.selected = ""
		return FileRecord{}, false
	}
	s.selected = s.output[0].ID
	return *s.output[0], true
}

// SelectedID returns the current selection without auto-assigning.
func (s *Store) SelectedID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *Store) SetTab(t Tab) error {
	switch t {
	case TabMetadata, TabPages, TabEnhance:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTab, t)
	}
	s.mu.Lock()
	s.tab = t
	s.mu.Unlock()
	return nil
}

func (s *Store) Tab() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tab
}

// Output returns output file id.
func (s *Store) Output(id string) (FileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, _ := find(s.output, id); rec != nil {
		return *rec, true
	}
	return FileRecord{}, false
}

func (s *Store) InputFiles() []FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return values(s.input)
}

func (s *Store) OutputFiles() []FileRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return values(s.output)
}

func (s *Store) InputCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.input)
}

func (s *Store) OutputCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.output)
}

// Snapshot is a consistent view of the whole session.
type Snapshot struct {
	Input    []FileRecord `json:"inputFiles"`
	Output   []FileRecord `json:"outputFiles"`
	Selected string       `json:"selectedFileId"`
	Tab      Tab          `json:"currentTab"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Input: values(s.input), Output: values(s.output), Selected: s.selected, Tab: s.tab}
}

// recordCounts must be called with mu held.
func (s *Store) recordCounts() { metrics.SetSessionFiles(len(s.input), len(s.output)) }

func find(list []*FileRecord, id string) (*FileRecord, int) {
	for i, rec := range list {
		if rec.ID == id {
			return rec, i
		}
	}
	return nil, -1
}

func without(list []*FileRecord, id string) ([]*FileRecord, bool) {
	out := list[:0:0]
	found := false
	for _, rec := range list {
		if rec.ID == id {
			found = true
			continue
		}
		out = append(out, rec)
	}
	return out, found
}

func values(list []*FileRecord) []FileRecord {
	out := make([]FileRecord, len(list))
	for i, rec := range list {
		out[i] = *rec
	}
	return out
}
