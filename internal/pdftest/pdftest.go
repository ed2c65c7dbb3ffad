// Package pdftest builds small, valid PDF files in memory for tests.
//
// Every page gets its own MediaBox so that tests can tell pages apart after
// they have been copied, reordered or merged: by convention the helpers give
// page i a width of 100+10*i points.
package pdftest

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Page describes one page of a fixture document.
type Page struct {
	Width  float64
	Height float64
	Rotate int
}

// Info holds document information entries. Empty fields are omitted.
type Info struct {
	Title        string
	Author       string
	Subject      string
	Keywords     string
	Creator      string
	Producer     string
	CreationDate time.Time
}

// Options configures Build.
type Options struct {
	Pages []Page
	Info  *Info
}

// DefaultHeight is the page height used by Pages.
const DefaultHeight = 792

// Width returns the conventional width of page i (zero-based).
func Width(i int) float64 { return float64(100 + 10*i) }

// Pages returns a document with n pages whose widths follow Width.
func Pages(n int) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Width: Width(i), Height: DefaultHeight}
	}
	return Build(Options{Pages: pages})
}

// WithInfo is Pages plus a document information dictionary.
func WithInfo(n int, info Info) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Page{Width: Width(i), Height: DefaultHeight}
	}
	return Build(Options{Pages: pages, Info: &info})
}

// Corrupt returns bytes that carry a PDF signature but no readable structure.
func Corrupt() []byte {
	return []byte("%PDF-1.7\nthis is not a pdf body\n%%EOF\n")
}

// Build serialises a classic (non-stream) cross-reference PDF.
func Build(opts Options) []byte {
	w := &writer{}
	w.buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	n := len(opts.Pages)
	// 1 catalog, 2 page tree, then a page and a content stream per page.
	kids := make([]string, n)
	for i := range opts.Pages {
		kids[i] = fmt.Sprintf("%d 0 R", 3+2*i)
	}
	w.object("<< /Type /Catalog /Pages 2 0 R >>")
	w.object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i, p := range opts.Pages {
		dict := fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << >> /Contents %d 0 R",
			num(p.Width), num(p.Height), 4+2*i)
		if p.Rotate != 0 {
			dict += fmt.Sprintf(" /Rotate %d", p.Rotate)
		}
		w.object(dict + " >>")
		content := fmt.Sprintf("0.2 0.2 0.8 rg 10 10 %s %s re f", num(p.Width/2), num(p.Height/2))
		w.object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	infoRef := 0
	if opts.Info != nil {
		infoRef = w.object(infoDict(*opts.Info))
	}

	xref := w.buf.Len()
	size := len(w.offsets) + 1
	fmt.Fprintf(&w.buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	trailer := fmt.Sprintf("<< /Size %d /Root 1 0 R", size)
	if infoRef != 0 {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoRef)
	}
	fmt.Fprintf(&w.buf, "trailer\n%s >>\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
	return w.buf.Bytes()
}

type writer struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *writer) object(body string) int {
	w.offsets = append(w.offsets, w.buf.Len())
	nr := len(w.offsets)
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", nr, body)
	return nr
}

func infoDict(info Info) string {
	var b bytes.Buffer
	b.WriteString("<<")
	entry := func(key, val string) {
		if val != "" {
			fmt.Fprintf(&b, " /%s (%s)", key, escape(val))
		}
	}
	entry("Title", info.Title)
	entry("Author", info.Author)
	entry("Subject", info.Subject)
	entry("Keywords", info.Keywords)
	entry("Creator", info.Creator)
	entry("Producer", info.Producer)
	if !info.CreationDate.IsZero() {
		entry("CreationDate", info.CreationDate.UTC().Format("D:20060102150405Z"))
	}
	b.WriteString(" >>")
	return b.String()
}

// escape handles ASCII literal strings only.
func escape(s string) string {
	var b bytes.Buffer
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

