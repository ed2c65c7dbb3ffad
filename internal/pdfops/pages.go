package pdfops

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/local/pdfplatypus/internal/pagerange"
)

// Source is one named input of Merge.
type Source struct {
	Name string
	Data []byte
}

// MergedTitle is the title given to merged documents.
const MergedTitle = "Merged PDF"

// Merge concatenates every page of every source, in source order.
func Merge(sources []Source) ([]byte, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}
	for _, s := range sources {
		if _, err := readContext(s.Data); err != nil {
			return nil, fmt.Errorf("merge %s: %w", s.Name, err)
		}
	}

	var merged []byte
	if len(sources) == 1 {
		var err error
		if merged, err = rewrite(sources[0].Data); err != nil {
			return nil, fmt.Errorf("merge %s: %w", sources[0].Name, err)
		}
	} else {
		rsc := make([]io.ReadSeeker, len(sources))
		for i, s := range sources {
			rsc[i] = bytes.NewReader(s.Data)
		}
		var buf bytes.Buffer
		if err := api.MergeRaw(rsc, &buf, false, newConfig()); err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
		merged = buf.Bytes()
	}

	now := time.Now()
	return appendInfo(merged, func(info types.Dict) error {
		for key, val := range map[string]string{"Title": MergedTitle, "Creator": AppName, "Producer": AppName} {
			if err := setText(info, key, val); err != nil {
				return err
			}
		}
		setDate(info, "CreationDate", &now)
		return nil
	})
}

// Extract copies exactly the given pages, in the given order, into a new
// document.
func Extract(data []byte, indices []int) ([]byte, error) {
	n, err := PageCount(data)
	if err != nil {
		return nil, err
	}
	if err := checkIndices(indices, n); err != nil {
		return nil, err
	}
	return derive(data, indices)
}

// Delete removes the given pages and keeps the rest in their original
// order. Removing every page is refused.
func Delete(data []byte, indices []int) ([]byte, error) {
	n, err := PageCount(data)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, ErrInvalidRange
	}
	keep := pagerange.Complement(indices, n)
	if len(keep) == 0 {
		return nil, ErrDeleteAllPages
	}
	return derive(data, keep)
}

// Rotate adds angle degrees to the rotation of each targeted page. angle may
// be negative but must be a multiple of 90.
func Rotate(data []byte, indices []int, angle int) ([]byte, error) {
	a := normalizeAngle(angle)
	if a%90 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAngle, angle)
	}
	n, err := PageCount(data)
	if err != nil {
		return nil, err
	}
	if err := checkIndices(indices, n); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := api.Rotate(bytes.NewReader(data), &buf, a, selection(indices), newConfig()); err != nil {
		return nil, fmt.Errorf("rotate: %w", err)
	}
	return keepInfo(data, buf.Bytes())
}

// Reorder rearranges pages so that output page i is input page order[i].
func Reorder(data []byte, order []int) ([]byte, error) {
	n, err := PageCount(data)
	if err != nil {
		return nil, err
	}
	if !pagerange.IsPermutation(order, n) {
		return nil, fmt.Errorf("%w: got %v for %d pages", ErrInvalidOrder, order, n)
	}
	return derive(data, order)
}

// derive builds a new document from the given pages of data. Like any newly
// assembled document it starts with fresh document information.
func derive(data []byte, indices []int) ([]byte, error) {
	var buf bytes.Buffer
	if err := api.Collect(bytes.NewReader(data), &buf, selection(indices), newConfig()); err != nil {
		return nil, fmt.Errorf("copy pages: %w", err)
	}
	now := time.Now()
	return appendInfo(buf.Bytes(), func(info types.Dict) error {
		setDate(info, "CreationDate", &now)
		return setText(info, "Producer", AppName)
	})
}

func checkIndices(indices []int, n int) error {
	if len(indices) == 0 {
		return ErrInvalidRange
	}
	for _, i := range indices {
		if i < 0 || i >= n {
			return fmt.Errorf("%w: page %d of %d", ErrInvalidRange, i+1, n)
		}
	}
	return nil
}

// selection converts zero-based indices to pdfcpu's 1-based page selection.
func selection(indices []int) []string {
	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = strconv.Itoa(idx + 1)
	}
	return out
}
