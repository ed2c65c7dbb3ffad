package orchestrator

import (
	"fmt"

	"github.com/local/pdfplatypus/internal/session"
)

// AllFiles as a target selects every output file.
const AllFiles = "all"

// Targets resolves target to output files. AllFiles is accepted only for
// batchable actions; an empty target means the current selection.
func (o *Orchestrator) Targets(target string, batchable bool) ([]session.FileRecord, error) {
	switch target {
	case AllFiles:
		if !batchable {
			return nil, ErrSingleFileOnly
		}
		files := o.deps.Store.OutputFiles()
		if len(files) == 0 {
			return nil, ErrNoTarget
		}
		return files, nil
	case "":
		rec, ok := o.deps.Store.Selected()
		if !ok {
			return nil, ErrNoTarget
		}
		return []session.FileRecord{rec}, nil
	default:
		rec, ok := o.deps.Store.Output(target)
		if !ok {
			return nil, fmt.Errorf("%w: %s", session.ErrNotFound, target)
		}
		return []session.FileRecord{rec}, nil
	}
}
