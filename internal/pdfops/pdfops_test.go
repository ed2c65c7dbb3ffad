package pdfops_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/local/pdfplatypus/internal/pdfops"
	"github.com/local/pdfplatypus/internal/pdftest"
)

func load(t *testing.T, data []byte) *pdfops.Document {
	t.Helper()
	doc, err := pdfops.Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc
}

// widths identifies pages by their fixture width.
func widths(t *testing.T, data []byte) []float64 {
	t.Helper()
	var out []float64
	for _, s := range load(t, data).PageSizes() {
		out = append(out, s.Width)
	}
	return out
}

func pageWidths(indices ...int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = pdftest.Width(idx)
	}
	return out
}

func TestLoad(t *testing.T) {
	doc := load(t, pdftest.Pages(3))
	if got := doc.PageCount(); got != 3 {
		t.Fatalf("PageCount = %d, want 3", got)
	}
	if diff := cmp.Diff(pageWidths(0, 1, 2), widths(t, pdftest.Pages(3))); diff != "" {
		t.Errorf("widths mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 0, 0}, doc.Rotations()); diff != "" {
		t.Errorf("rotations mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCorrupt(t *testing.T) {
	if _, err := pdfops.Load(pdftest.Corrupt()); !errors.Is(err, pdfops.ErrUnreadable) {
		t.Fatalf("Load(corrupt) error = %v, want ErrUnreadable", err)
	}
	if _, err := pdfops.PageCount([]byte("plain text")); !errors.Is(err, pdfops.ErrUnreadable) {
		t.Fatalf("PageCount(text) error = %v, want ErrUnreadable", err)
	}
}

func TestExtract(t *testing.T) {
	src := pdftest.Pages(4)
	out, err := pdfops.Extract(src, []int{3, 0, 3})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pageWidths(3, 0, 3), widths(t, out)); diff != "" {
		t.Errorf("extracted pages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pageWidths(0, 1, 2, 3), widths(t, src)); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

func TestExtractInvalid(t *testing.T) {
	src := pdftest.Pages(2)
	for _, indices := range [][]int{nil, {2}, {-1}} {
		if _, err := pdfops.Extract(src, indices); !errors.Is(err, pdfops.ErrInvalidRange) {
			t.Errorf("Extract(%v) error = %v, want ErrInvalidRange", indices, err)
		}
	}
}

func TestDelete(t *testing.T) {
	out, err := pdfops.Delete(pdftest.Pages(3), []int{0})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pageWidths(1, 2), widths(t, out)); diff != "" {
		t.Errorf("remaining pages mismatch (-want +got):\n%s", diff)
	}

	out, err = pdfops.Delete(pdftest.Pages(5), []int{3, 1})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pageWidths(0, 2, 4), widths(t, out)); diff != "" {
		t.Errorf("remaining pages mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteRejected(t *testing.T) {
	src := pdftest.Pages(3)
	if _, err := pdfops.Delete(src, []int{0, 1, 2}); !errors.Is(err, pdfops.ErrDeleteAllPages) {
		t.Errorf("Delete(all) error = %v, want ErrDeleteAllPages", err)
	}
	if _, err := pdfops.Delete(src, nil); !errors.Is(err, pdfops.ErrInvalidRange) {
		t.Errorf("Delete(nil) error = %v, want ErrInvalidRange", err)
	}
}

func TestRotate(t *testing.T) {
	src := pdftest.Pages(3)
	once, err := pdfops.Rotate(src, []int{0}, 90)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := pdfops.Rotate(once, []int{0}, 90)
	if err != nil {
		t.Fatal(err)
	}
	half, err := pdfops.Rotate(src, []int{0}, 180)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(load(t, half).Rotations(), load(t, twice).Rotations()); diff != "" {
		t.Errorf("90+90 differs from 180 (-180 +90+90):\n%s", diff)
	}
	if diff := cmp.Diff([]int{180, 0, 0}, load(t, twice).Rotations()); diff != "" {
		t.Errorf("rotations mismatch (-want +got):\n%s", diff)
	}
}

func TestRotateComposes(t *testing.T) {
	src := pdftest.Build(pdftest.Options{Pages: []pdftest.Page{
		{Width: 100, Height: 200, Rotate: 270},
		{Width: 110, Height: 200},
		{Width: 120, Height: 200, Rotate: 90},
	}})
	out, err := pdfops.Rotate(src, []int{0, 1}, 180)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{90, 180, 90}, load(t, out).Rotations()); diff != "" {
		t.Errorf("rotations mismatch (-want +got):\n%s", diff)
	}

	out, err = pdfops.Rotate(src, []int{1}, -90)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{270, 270, 90}, load(t, out).Rotations()); diff != "" {
		t.Errorf("rotations mismatch (-want +got):\n%s", diff)
	}
}

func TestRotateInvalid(t *testing.T) {
	src := pdftest.Pages(2)
	if _, err := pdfops.Rotate(src, []int{0}, 45); !errors.Is(err, pdfops.ErrInvalidAngle) {
		t.Errorf("Rotate(45) error = %v, want ErrInvalidAngle", err)
	}
	if _, err := pdfops.Rotate(src, nil, 90); !errors.Is(err, pdfops.ErrInvalidRange) {
		t.Errorf("Rotate(nil) error = %v, want ErrInvalidRange", err)
	}
}

func TestReorder(t *testing.T) {
	out, err := pdfops.Reorder(pdftest.Pages(3), []int{2, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(pageWidths(2, 0, 1), widths(t, out)); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	for _, order := range [][]int{{0, 1}, {0, 0, 1}, {0, 1, 3}} {
		if _, err := pdfops.Reorder(pdftest.Pages(3), order); !errors.Is(err, pdfops.ErrInvalidOrder) {
			t.Errorf("Reorder(%v) error = %v, want ErrInvalidOrder", order, err)
		}
	}
}

func TestMerge(t *testing.T) {
	a := pdftest.Pages(2)
	b := pdftest.Build(pdftest.Options{Pages: []pdftest.Page{{Width: 300, Height: 400}}})
	out, err := pdfops.Merge([]pdfops.Source{{Name: "a.pdf", Data: a}, {Name: "b.pdf", Data: b}})
	if err != nil {
		t.Fatal(err)
	}
	doc := load(t, out)
	if diff := cmp.Diff([]float64{100, 110, 300}, widths(t, out)); diff != "" {
		t.Errorf("merged pages mismatch (-want +got):\n%s", diff)
	}
	if got := doc.Metadata().Title; got != pdfops.MergedTitle {
		t.Errorf("Title = %q, want %q", got, pdfops.MergedTitle)
	}
	if got := doc.Metadata().Creator; got != pdfops.AppName {
		t.Errorf("Creator = %q, want %q", got, pdfops.AppName)
	}
	if got := doc.Metadata().Producer; got != pdfops.AppName {
		t.Errorf("Producer = %q, want %q", got, pdfops.AppName)
	}
	if doc.Metadata().CreationDate == nil {
		t.Error("CreationDate not set")
	}
}

func TestMergeSingleSourceStamped(t *testing.T) {
	out, err := pdfops.Merge([]pdfops.Source{{Name: "a.pdf", Data: pdftest.Pages(2)}})
	if err != nil {
		t.Fatal(err)
	}
	if got := load(t, out).Metadata(); got.Title != pdfops.MergedTitle || got.Producer != pdfops.AppName {
		t.Errorf("metadata = %+v", got)
	}
}

func TestMergeFailures(t *testing.T) {
	if _, err := pdfops.Merge(nil); !errors.Is(err, pdfops.ErrNoSources) {
		t.Errorf("Merge(nil) error = %v, want ErrNoSources", err)
	}
	_, err := pdfops.Merge([]pdfops.Source{{Name: "ok.pdf", Data: pdftest.Pages(1)}, {Name: "bad.pdf", Data: pdftest.Corrupt()}})
	if !errors.Is(err, pdfops.ErrUnreadable) {
		t.Errorf("Merge(corrupt) error = %v, want ErrUnreadable", err)
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)
	modified := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	want := pdfops.Metadata{
		Title:        "Quarterly (draft)",
		Author:       "Ada Lovelace",
		Subject:      "Über Café",
		Keywords:     "finance,  q1 , ,report",
		Creator:      "Writer",
		Producer:     "Word",
		CreationDate: &created,
		ModDate:      &modified,
	}
	out, err := pdfops.SetMetadata(pdftest.Pages(1), want)
	if err != nil {
		t.Fatal(err)
	}
	got := load(t, out).Metadata()
	if got.Title != want.Title || got.Author != want.Author || got.Subject != want.Subject || got.Creator != want.Creator {
		t.Errorf("text fields = %+v, want %+v", got, want)
	}
	if got.Keywords != "finance, q1, report" {
		t.Errorf("Keywords = %q, want %q", got.Keywords, "finance, q1, report")
	}
	if got.Producer != "Word" {
		t.Errorf("Producer = %q, want %q", got.Producer, "Word")
	}
	if got.CreationDate == nil || !got.CreationDate.Equal(created) {
		t.Errorf("CreationDate = %v, want %v", got.CreationDate, created)
	}
	if got.ModDate == nil || !got.ModDate.Equal(modified) {
		t.Errorf("ModDate = %v, want %v", got.ModDate, modified)
	}
}

func TestMetadataSavesDoNotAccumulate(t *testing.T) {
	m := pdfops.Metadata{Title: "Same", Producer: "Word"}
	once, err := pdfops.SetMetadata(pdftest.Pages(2), m)
	if err != nil {
		t.Fatal(err)
	}
	data := once
	for range 5 {
		if data, err = pdfops.SetMetadata(data, m); err != nil {
			t.Fatal(err)
		}
	}
	if len(data) > len(once)+200 {
		t.Errorf("size grew from %d to %d over repeated saves", len(once), len(data))
	}
	if got := load(t, data).Metadata(); got.Title != "Same" || got.Producer != "Word" {
		t.Errorf("metadata = %+v", got)
	}
}

func TestPageEditsKeepInfo(t *testing.T) {
	created := time.Date(2019, 6, 1, 12, 0, 0, 0, time.UTC)
	src := pdftest.WithInfo(3, pdftest.Info{Title: "Plan", Producer: "Word", CreationDate: created})
	tests := []struct {
		name string
		fn   func([]byte) ([]byte, error)
	}{
		{"rotate", func(d []byte) ([]byte, error) { return pdfops.Rotate(d, []int{1}, 90) }},
		{"watermark", func(d []byte) ([]byte, error) { return pdfops.Watermark(d, "DRAFT", 0.5) }},
		{"page numbers", func(d []byte) ([]byte, error) { return pdfops.PageNumbers(d, pdfops.BottomCenter) }},
		{"compress", func(d []byte) ([]byte, error) {
			res, err := pdfops.Compress(d)
			return res.Data, err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.fn(src)
			if err != nil {
				t.Fatal(err)
			}
			got := load(t, out).Metadata()
			if got.Title != "Plan" || got.Producer != "Word" {
				t.Errorf("metadata = %+v", got)
			}
			if got.CreationDate == nil || !got.CreationDate.Equal(created) {
				t.Errorf("CreationDate = %v, want %v", got.CreationDate, created)
			}
			if got.ModDate != nil {
				t.Errorf("ModDate = %v, want none", got.ModDate)
			}
		})
	}
}

func TestMetadataClearsFields(t *testing.T) {
	src := pdftest.WithInfo(1, pdftest.Info{Title: "Old", Author: "Someone", Keywords: "a b"})
	if got := load(t, src).Metadata(); got.Title != "Old" || got.Keywords != "a, b" {
		t.Fatalf("fixture metadata = %+v", got)
	}
	out, err := pdfops.SetMetadata(src, pdfops.Metadata{Title: "New"})
	if err != nil {
		t.Fatal(err)
	}
	got := load(t, out).Metadata()
	if got.Title != "New" || got.Author != "" || got.Keywords != "" {
		t.Errorf("metadata = %+v, want only Title", got)
	}
}

func TestKeywords(t *testing.T) {
	tests := []struct{ display, stored string }{
		{"a, b, c", "a b c"},
		{" a ,, b ", "a b"},
		{"", ""},
		{"single", "single"},
	}
	for _, tt := range tests {
		if got := pdfops.StoredKeywords(tt.display); got != tt.stored {
			t.Errorf("StoredKeywords(%q) = %q, want %q", tt.display, got, tt.stored)
		}
	}
	if got := pdfops.DisplayKeywords("a  b\tc"); got != "a, b, c" {
		t.Errorf("DisplayKeywords = %q", got)
	}
	if got := pdfops.DisplayKeywords(pdfops.StoredKeywords("x, y")); got != "x, y" {
		t.Errorf("round trip = %q, want %q", got, "x, y")
	}
}

func TestWatermark(t *testing.T) {
	src := pdftest.Pages(3)
	out, err := pdfops.Watermark(src, "CONFIDENTIAL", 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if got := load(t, out).PageCount(); got != 3 {
		t.Errorf("PageCount = %d, want 3", got)
	}
	if len(out) <= len(src) {
		t.Errorf("watermarked file is not larger: %d <= %d", len(out), len(src))
	}
	if _, err := pdfops.Watermark(src, "  ", 0.5); !errors.Is(err, pdfops.ErrEmptyWatermark) {
		t.Errorf("Watermark(blank) error = %v, want ErrEmptyWatermark", err)
	}
}

func TestPageNumbers(t *testing.T) {
	for _, pos := range []pdfops.Position{pdfops.BottomCenter, pdfops.BottomRight, pdfops.TopCenter, pdfops.TopRight} {
		out, err := pdfops.PageNumbers(pdftest.Pages(2), pos)
		if err != nil {
			t.Fatalf("PageNumbers(%s): %v", pos, err)
		}
		if got := load(t, out).PageCount(); got != 2 {
			t.Errorf("PageNumbers(%s): PageCount = %d, want 2", pos, got)
		}
	}
	if _, err := pdfops.PageNumbers(pdftest.Pages(1), "middle"); !errors.Is(err, pdfops.ErrInvalidPosition) {
		t.Errorf("PageNumbers(middle) error = %v, want ErrInvalidPosition", err)
	}
}

func TestParsePosition(t *testing.T) {
	tests := []struct {
		in   string
		want pdfops.Position
		ok   bool
	}{
		{"", pdfops.BottomCenter, true},
		{"Top-Right", pdfops.TopRight, true},
		{"bottom-right", pdfops.BottomRight, true},
		{"left", "", false},
	}
	for _, tt := range tests {
		got, err := pdfops.ParsePosition(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParsePosition(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestCompress(t *testing.T) {
	src := pdftest.Pages(4)
	res, err := pdfops.Compress(src)
	if err != nil {
		t.Fatal(err)
	}
	if res.Before != len(src) || res.After != len(res.Data) {
		t.Errorf("sizes = %d -> %d, data %d", res.Before, res.After, len(res.Data))
	}
	if got := load(t, res.Data).PageCount(); got != 4 {
		t.Errorf("PageCount = %d, want 4", got)
	}
}

func TestSavings(t *testing.T) {
	tests := []struct {
		res  pdfops.CompressResult
		want float64
	}{
		{pdfops.CompressResult{Before: 200, After: 150}, 25},
		{pdfops.CompressResult{Before: 100, After: 125}, -25},
		{pdfops.CompressResult{}, 0},
	}
	for _, tt := range tests {
		if got := tt.res.Savings(); got != tt.want {
			t.Errorf("Savings(%d -> %d) = %v, want %v", tt.res.Before, tt.res.After, got, tt.want)
		}
	}
}
