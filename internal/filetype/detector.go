package filetype

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

// PDF is the only content type the workbench accepts.
const PDF = "application/pdf"

// FileTypeInfo contains detected file type information
type FileTypeInfo struct {
	MIMEType    string
	Extension   string
	Supported   bool
	Description string
}

// Detector handles file type detection using magic bytes
type Detector struct{}

// New creates a new file type detector
func New() *Detector {
	return &Detector{}
}

// Detect detects the actual file type of an upload from its magic bytes,
// not from its name.
func (d *Detector) Detect(data []byte, name string) *FileTypeInfo {
	mtype := mimetype.Detect(data)
	info := &FileTypeInfo{
		MIMEType:  mtype.String(),
		Extension: mtype.Extension(),
	}
	d.classify(info)
	log.Debug().Str("mime", info.MIMEType).Str("ext", info.Extension).Str("file", name).Bool("supported", info.Supported).Msg("detected file type")
	return info
}

// classify marks PDFs as supported and describes everything else
func (d *Detector) classify(info *FileTypeInfo) {
	mimeType := info.MIMEType
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}

	switch {
	case mimeType == PDF:
		info.Supported = true
		info.Description = "PDF document"

	case strings.HasPrefix(mimeType, "image/"):
		info.Description = "Image file (convert to PDF first)"

	case strings.HasPrefix(mimeType, "application/vnd.openxmlformats-officedocument"),
		strings.HasPrefix(mimeType, "application/vnd.oasis.opendocument"),
		mimeType == "application/msword":
		info.Description = "Office document (export to PDF first)"

	case strings.HasPrefix(mimeType, "text/"):
		info.Description = "Plain text file"

	default:
		info.Description = fmt.Sprintf("Unsupported file type: %s", mimeType)
	}
}

// AcceptPDF reports whether an upload may enter the session: the declared
// content type, when there is one, must be PDF and so must the content.
func (d *Detector) AcceptPDF(data []byte, name, declared string) bool {
	if declared != "" {
		mt, _, err := mime.ParseMediaType(declared)
		if err != nil || mt != PDF {
			log.Debug().Str("declared", declared).Str("file", name).Msg("declared type is not PDF")
			return false
		}
	}
	return d.Detect(data, name).Supported
}
