package session

import (
	"errors"

	"github.com/local/pdfplatypus/internal/pdfops"
)

// Tab is the active workspace view.
type Tab string

const (
	TabMetadata Tab = "metadata"
	TabPages    Tab = "pages"
	TabEnhance  Tab = "enhance"
)

// Scope names one of the two file collections.
type Scope string

const (
	ScopeInput  Scope = "input"
	ScopeOutput Scope = "output"
)

var (
	ErrNotFound       = errors.New("file not found")
	ErrNotPermutation = errors.New("order must list every output file exactly once")
	ErrUnknownTab     = errors.New("unknown tab")
	ErrUnknownScope   = errors.New("unknown scope")
)

// FileRecord is one PDF held by the session. Records are values: an update
// builds a new record with the same ID instead of modifying the old one, so
// Data, Doc and Metadata always describe the same bytes.
type FileRecord struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Size      int64            `json:"size"`
	PageCount int              `json:"pageCount"`
	Metadata  pdfops.Metadata  `json:"metadata"`
	Data      []byte           `json:"-"`
	Doc       *pdfops.Document `json:"-"`
}

// Upload is a candidate file for AddFiles.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

func newRecord(id, name string, data []byte) (*FileRecord, error) {
	doc, err := pdfops.Load(data)
	if err != nil {
		return nil, err
	}
	return &FileRecord{
		ID:        id,
		Name:      name,
		Size:      int64(len(data)),
		PageCount: doc.PageCount(),
		Metadata:  doc.Metadata(),
		Data:      data,
		Doc:       doc,
	}, nil
}
