// Package export packages finished files for download.
package export

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// AllFilesName is the archive name used when downloading every output file.
const AllFilesName = "pdf-platypus-export.zip"

// AllImagesName is the archive name for page images taken from several files.
const AllImagesName = "pdf-platypus-images.zip"

const (
	PDFContentType = "application/pdf"
	ZipContentType = "application/zip"
)

// Entry is one file inside an archive.
type Entry struct {
	Name string
	Data []byte
}

// Zip bundles entries into an in-memory ZIP archive. Duplicate names get a
// numeric suffix so no entry shadows another.
func Zip(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	used := make(map[string]int, len(entries))
	now := time.Now()
	for _, e := range entries {
		name := uniqueName(e.Name, used)
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
		if _, err := w.Write(e.Data); err != nil {
			return nil, fmt.Errorf("zip %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}
	return buf.Bytes(), nil
}

func uniqueName(name string, used map[string]int) string {
	n := used[name]
	used[name] = n + 1
	if n == 0 {
		return name
	}
	ext := ""
	if i := strings.LastIndexByte(name, '.'); i > 0 {
		name, ext = name[:i], name[i:]
	}
	return fmt.Sprintf("%s (%d)%s", name, n, ext)
}

// BaseName strips a trailing .pdf, case-insensitively.
func BaseName(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return name[:len(name)-4]
	}
	return name
}

// ImageName names a single exported page image: report.pdf + page_2.png
// gives report_page_2.png.
func ImageName(fileName, imageName string) string {
	return BaseName(fileName) + "_" + imageName
}

// ImagesArchiveName names the archive holding several page images.
func ImagesArchiveName(fileName string) string {
	return BaseName(fileName) + "_images.zip"
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders n bytes with binary units and at most two
// decimals, e.g. "1.5 KB".
func FormatFileSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	i = min(i, len(sizeUnits)-1)
	v := math.Round(float64(n)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// SavingsMessage describes a single-file compression result.
func SavingsMessage(before, after int64) string {
	savings := 0.0
	if before > 0 {
		savings = (1 - float64(after)/float64(before)) * 100
	}
	return fmt.Sprintf("Compressed! Saved %.1f%% (%s -> %s)", savings, FormatFileSize(before), FormatFileSize(after))
}
