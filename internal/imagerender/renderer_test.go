package imagerender

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/local/pdfplatypus/internal/limiter"
	"github.com/local/pdfplatypus/internal/pdftest"
)

func near(got, want int) bool { return got >= want-1 && got <= want+1 }

func TestExportPNG(t *testing.T) {
	r := New(Options{})
	images, err := r.Export(context.Background(), pdftest.Pages(3), nil, PNG)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, img := range images {
		names = append(names, img.Name)
	}
	if diff := cmp.Diff([]string{"page_1.png", "page_2.png", "page_3.png"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	decoded, err := png.Decode(bytes.NewReader(images[1].Data))
	if err != nil {
		t.Fatal(err)
	}
	want := int(2 * pdftest.Width(1))
	if got := decoded.Bounds().Dx(); !near(got, want) {
		t.Errorf("page 2 width = %d px, want about %d", got, want)
	}
	if images[1].ContentType != "image/png" {
		t.Errorf("ContentType = %q", images[1].ContentType)
	}
}

func TestExportJPEGSubset(t *testing.T) {
	r := New(Options{})
	images, err := r.Export(context.Background(), pdftest.Pages(3), []int{2, 7, 0, -1}, JPEG)
	if err != nil {
		t.Fatal(err)
	}
	if len(images) != 2 || images[0].Name != "page_3.jpeg" || images[1].Name != "page_1.jpeg" {
		t.Fatalf("images = %v, want page_3.jpeg then page_1.jpeg", imageNames(images))
	}
	if _, err := jpeg.Decode(bytes.NewReader(images[0].Data)); err != nil {
		t.Errorf("decode jpeg: %v", err)
	}
}

func TestExportCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{}).Export(ctx, pdftest.Pages(2), nil, PNG); !errors.Is(err, context.Canceled) {
		t.Fatalf("Export error = %v, want Canceled", err)
	}
}

func TestThumbnail(t *testing.T) {
	r := New(Options{ThumbnailWidth: 60, Slots: limiter.New(limiter.Options{MaxInflight: 1})})
	out, err := r.Thumbnail(context.Background(), pdftest.Pages(2), 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if !near(cfg.Width, 60) {
		t.Errorf("thumbnail width = %d, want about 60", cfg.Width)
	}
}

func TestThumbnailErrors(t *testing.T) {
	r := New(Options{})
	if _, err := r.Thumbnail(context.Background(), pdftest.Pages(1), 3, 0); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("out of range error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Thumbnail(ctx, pdftest.Pages(1), 0, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled error = %v", err)
	}
}

func TestRenderThumbnailStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := renderThumbnail(ctx, pdftest.Pages(1), 0, 60)
	if !errors.Is(err, context.Canceled) || out != nil {
		t.Errorf("renderThumbnail = %d bytes, %v; want context.Canceled", len(out), err)
	}
	if _, err := renderThumbnail(context.Background(), pdftest.Pages(1), 0, 60); err != nil {
		t.Errorf("live context: %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": PNG, "PNG": PNG, "jpg": JPEG, "jpeg": JPEG} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(gif) error = %v", err)
	}
}

func imageNames(images []Image) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = img.Name
	}
	return out
}
