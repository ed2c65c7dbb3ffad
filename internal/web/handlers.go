package web

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfplatypus/internal/orchestrator"
	"github.com/local/pdfplatypus/internal/pdfops"
	"github.com/local/pdfplatypus/internal/session"
)

// writeError maps err onto a status: request problems are 400, unknown
// files 404, everything else 500.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case orchestrator.IsNotFound(err):
		status = http.StatusNotFound
	case orchestrator.IsValidation(err):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bind decodes an optional JSON body into dst.
func bind(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json: " + err.Error()})
		return false
	}
	return true
}

func sendDownload(c *gin.Context, dl orchestrator.Download) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name}))
	c.Data(http.StatusOK, dl.ContentType, dl.Data)
}

func (w *Web) handleHealth(c *gin.Context) {
	s := w.health.Summary(c.Request.Context())
	status := http.StatusOK
	if !s.OK {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, s)
}

func (w *Web) handleSession(c *gin.Context) {
	c.JSON(http.StatusOK, w.orch.Store().Snapshot())
}

func (w *Web) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, w.maxUpload)
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	uploads := make([]session.Upload, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			writeError(c, err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(c, err)
			return
		}
		uploads = append(uploads, session.Upload{Name: h.Filename, ContentType: h.Header.Get("Content-Type"), Data: data})
	}
	added := w.orch.AddFiles(uploads)
	if added == nil {
		added = []session.FileRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "skipped": len(uploads) - len(added)})
}

func (w *Web) handleClear(c *gin.Context) {
	w.orch.ClearAll()
	c.Status(http.StatusNoContent)
}

func (w *Web) handleRemove(c *gin.Context) {
	if err := w.orch.RemoveFile(c.Param("id"), session.Scope(c.Param("scope"))); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (w *Web) handleSelect(c *gin.Context) {
	var req struct {
		ID string `json:"id"`
	}
	if !bind(c, &req) {
		return
	}
	if err := w.orch.Store().Select(req.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (w *Web) handleTab(c *gin.Context) {
	var req struct {
		Tab string `json:"tab"`
	}
	if !bind(c, &req) {
		return
	}
	if err := w.orch.Store().SetTab(session.Tab(req.Tab)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (w *Web) handleOutputOrder(c *gin.Context) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if !bind(c, &req) {
		return
	}
	if err := w.orch.Store().ReorderOutputFiles(req.IDs); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, w.orch.Store().OutputFiles())
}

func (w *Web) handleDownload(c *gin.Context) {
	dl, err := w.orch.DownloadFile(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	sendDownload(c, dl)
}

func (w *Web) handleDownloadAll(c *gin.Context) {
	dl, err := w.orch.DownloadAll()
	if err != nil {
		writeError(c, err)
		return
	}
	sendDownload(c, dl)
}

func (w *Web) handlePages(c *gin.Context) {
	pages, err := w.orch.Pages(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, pages)
}

func (w *Web) handleThumbnail(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil {
		writeError(c, orchestrator.ErrInvalidPage)
		return
	}
	width, _ := strconv.Atoi(c.Query("width"))
	png, err := w.orch.Thumbnail(c.Request.Context(), c.Param("id"), page, width)
	switch {
	case errors.Is(err, context.Canceled):
		// client went away; nobody is reading
		c.Abort()
		return
	case err != nil:
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (w *Web) handleMetadata(c *gin.Context) {
	view, err := w.orch.Metadata(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (w *Web) handleEditMetadata(c *gin.Context) {
	var patch orchestrator.MetadataPatch
	if !bind(c, &patch) {
		return
	}
	view, err := w.orch.EditMetadata(c.Param("id"), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, view)
}

func (w *Web) handleFlushMetadata(c *gin.Context) {
	flushed, err := w.orch.FlushMetadata(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	view, err := w.orch.Metadata(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flushed": flushed, "metadata": view})
}

func (w *Web) handleResetMetadata(c *gin.Context) {
	view, err := w.orch.ResetMetadata(c.Param("id"), c.Query("field"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// pageRequest carries the inputs of every page tab action.
type pageRequest struct {
	Target string `json:"target"`
	Range  string `json:"range"`
	Angle  int    `json:"angle"`
	Format string `json:"format"`
	// Order lists zero-based page indices.
	Order []int `json:"order"`
}

func (w *Web) respond(c *gin.Context, out orchestrator.Outcome, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (w *Web) handleMerge(c *gin.Context) {
	out, err := w.orch.Merge()
	w.respond(c, out, err)
}

func (w *Web) handleSplit(c *gin.Context) {
	var req pageRequest
	if !bind(c, &req) {
		return
	}
	out, err := w.orch.Split(req.Target, req.Range)
	w.respond(c, out, err)
}

func (w *Web) handleDeletePages(c *gin.Context) {
	var req pageRequest
	if !bind(c, &req) {
		return
	}
	out, err := w.orch.DeletePages(req.Target, req.Range)
	w.respond(c, out, err)
}

func (w *Web) handleRotate(c *gin.Context) {
	req := pageRequest{Angle: 90}
	if !bind(c, &req) {
		return
	}
	out, err := w.orch.Rotate(req.Target, req.Range, req.Angle)
	w.respond(c, out, err)
}

func (w *Web) handleReorder(c *gin.Context) {
	var req pageRequest
	if !bind(c, &req) {
		return
	}
	out, err := w.orch.Reorder(req.Target, req.Order)
	w.respond(c, out, err)
}

// handleImages answers with the image or archive itself; the outcome
// counts travel in headers. When nothing was rendered the outcome is the
// body.
func (w *Web) handleImages(c *gin.Context) {
	req := pageRequest{Format: "png"}
	if !bind(c, &req) {
		return
	}
	dl, out, err := w.orch.Images(c.Request.Context(), req.Target, req.Range, req.Format)
	if err != nil {
		writeError(c, err)
		return
	}
	if dl == nil {
		c.JSON(http.StatusUnprocessableEntity, out)
		return
	}
	c.Header("X-Succeeded", strconv.Itoa(out.Succeeded))
	c.Header("X-Failed", strconv.Itoa(out.Failed))
	sendDownload(c, *dl)
}

func (w *Web) handleWatermark(c *gin.Context) {
	var req struct {
		Target  string   `json:"target"`
		Text    string   `json:"text"`
		Opacity *float64 `json:"opacity"`
	}
	if !bind(c, &req) {
		return
	}
	opacity := pdfops.DefaultOpacity
	if req.Opacity != nil {
		opacity = *req.Opacity
	}
	out, err := w.orch.Watermark(req.Target, req.Text, opacity)
	w.respond(c, out, err)
}

func (w *Web) handlePageNumbers(c *gin.Context) {
	var req struct {
		Target   string `json:"target"`
		Position string `json:"position"`
	}
	if !bind(c, &req) {
		return
	}
	out, err := w.orch.PageNumbers(req.Target, req.Position)
	w.respond(c, out, err)
}

func (w *Web) handleCompress(c *gin.Context) {
	var req struct {
		Target string `json:"target"`
	}
	if !bind(c, &req) {
		return
	}
	out, err := w.orch.Compress(req.Target)
	w.respond(c, out, err)
}
