package orchestrator

import (
	"context"
	"fmt"

	"github.com/local/pdfplatypus/internal/export"
	"github.com/local/pdfplatypus/internal/session"
)

// Download is a file ready to be sent to the user.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
}

// DownloadFile returns output file id as it stands, after running any
// metadata save still waiting for it.
func (o *Orchestrator) DownloadFile(id string) (Download, error) {
	o.deps.Autosave.Flush(id)
	rec, ok := o.deps.Store.Output(id)
	if !ok {
		return Download{}, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	return Download{Name: rec.Name, ContentType: export.PDFContentType, Data: rec.Data}, nil
}

// DownloadAll returns the single output file, or a ZIP of every output
// file in export order.
func (o *Orchestrator) DownloadAll() (Download, error) {
	o.deps.Autosave.FlushAll()
	files := o.deps.Store.OutputFiles()
	switch len(files) {
	case 0:
		return Download{}, ErrNoTarget
	case 1:
		return Download{Name: files[0].Name, ContentType: export.PDFContentType, Data: files[0].Data}, nil
	}
	entries := make([]export.Entry, len(files))
	for i, f := range files {
		entries[i] = export.Entry{Name: f.Name, Data: f.Data}
	}
	data, err := export.Zip(entries)
	if err != nil {
		return Download{}, fmt.Errorf("bundle outputs: %w", err)
	}
	return Download{Name: export.AllFilesName, ContentType: export.ZipContentType, Data: data}, nil
}

// Thumbnail renders page (one-based) of output file id as a PNG. It
// returns early with ctx.Err() when ctx ends before the render finishes.
func (o *Orchestrator) Thumbnail(ctx context.Context, id string, page, width int) ([]byte, error) {
	rec, ok := o.deps.Store.Output(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", session.ErrNotFound, id)
	}
	if page < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPage, page)
	}
	return o.deps.Renderer.Thumbnail(ctx, rec.Data, page-1, width)
}
