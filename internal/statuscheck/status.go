package statuscheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/local/pdfplatypus/internal/pdfops"
)

// SessionCounter models the part of the session the summary reports.
type SessionCounter interface {
	InputCount() int
	OutputCount() int
}

// Checker aggregates health checks for the engines the workbench depends on.
type Checker struct {
	session SessionCounter
	timeout time.Duration
	probe   []byte
	started time.Time
}

// Options configures the Checker.
type Options struct {
	Session SessionCounter
	// Timeout bounds each probe.
	Timeout time.Duration
}

// Status represents the readiness of a subsystem.
type Status struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

// SessionStatus counts the files held in memory.
type SessionStatus struct {
	InputFiles  int `json:"inputFiles"`
	OutputFiles int `json:"outputFiles"`
}

// Summary bundles all subsystem statuses for /health.
type Summary struct {
	OK       bool          `json:"ok"`
	Uptime   string        `json:"uptime"`
	PDF      Status        `json:"pdf"`
	Renderer Status        `json:"renderer"`
	Session  SessionStatus `json:"session"`
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &Checker{session: opts.Session, timeout: opts.Timeout, probe: probePDF(), started: time.Now()}
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
	s := Summary{
		Uptime:   time.Since(c.started).Round(time.Second).String(),
		PDF:      c.run(ctx, c.checkPDF),
		Renderer: c.run(ctx, c.checkRenderer),
	}
	if c.session != nil {
		s.Session = SessionStatus{InputFiles: c.session.InputCount(), OutputFiles: c.session.OutputCount()}
	}
	s.OK = s.PDF.OK && s.Renderer.OK
	return s
}

// run gives check its own goroutine so a wedged engine cannot hang /health.
func (c *Checker) run(ctx context.Context, check func() Status) Status {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	done := make(chan Status, 1)
	go func() { done <- check() }()
	select {
	case st := <-done:
		return st
	case <-ctx.Done():
		return Status{OK: false, Message: trimError(ctx.Err())}
	}
}

func (c *Checker) checkPDF() Status {
	n, err := pdfops.PageCount(c.probe)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	if n != 1 {
		return Status{OK: false, Message: fmt.Sprintf("probe has %d pages", n)}
	}
	return Status{OK: true, Message: "Available"}
}

func (c *Checker) checkRenderer() Status {
	doc, err := fitz.NewFromMemory(c.probe)
	if err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	defer doc.Close()
	if _, err := doc.ImageDPI(0, 18); err != nil {
		return Status{OK: false, Message: trimError(err)}
	}
	return Status{OK: true, Message: "Available"}
}

// probePDF is a single blank page.
func probePDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	var offsets []int
	for _, body := range []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 72 72] /Resources << >> >>",
	} {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func trimError(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	msg := err.Error()
	if len(msg) > 120 {
		return msg[:120]
	}
	return msg
}
