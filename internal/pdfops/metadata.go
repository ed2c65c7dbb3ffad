package pdfops

import (
	"bytes"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// AppName is written as Creator and Producer on documents the workbench
// assembles itself.
const AppName = "PDF Platypus"

// Metadata is the document information dictionary in display form.
// Keywords are a comma separated list; nil dates are absent.
type Metadata struct {
	Title        string     `json:"title"`
	Author       string     `json:"author"`
	Subject      string     `json:"subject"`
	Keywords     string     `json:"keywords"`
	Creator      string     `json:"creator"`
	Producer     string     `json:"producer"`
	CreationDate *time.Time `json:"creationDate,omitempty"`
	ModDate      *time.Time `json:"modificationDate,omitempty"`
}

func readInfo(ctx *model.Context) Metadata {
	x := ctx.XRefTable
	return Metadata{
		Title:        x.Title,
		Author:       x.Author,
		Subject:      x.Subject,
		Keywords:     DisplayKeywords(x.Keywords),
		Creator:      x.Creator,
		Producer:     x.Producer,
		CreationDate: parseDate(x.CreationDate),
		ModDate:      parseDate(x.ModDate),
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, ok := types.DateTime(s, true)
	if !ok {
		return nil
	}
	return &t
}

// DisplayKeywords turns the stored, whitespace separated keyword string into
// the comma separated form shown to users.
func DisplayKeywords(stored string) string {
	fields := strings.FieldsFunc(stored, func(r rune) bool {
		return unicode.IsSpace(r) || r == ',' || r == ';'
	})
	return strings.Join(fields, ", ")
}

// StoredKeywords is the inverse of DisplayKeywords: entries are split on
// commas, trimmed, emptied entries dropped and the rest joined by spaces.
func StoredKeywords(display string) string {
	var out []string
	for _, k := range strings.Split(display, ",") {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return strings.Join(out, " ")
}

// SetMetadata replaces every information field with m. Empty strings and
// nil dates remove the entry.
func SetMetadata(data []byte, m Metadata) ([]byte, error) {
	// fold earlier updates into one body so saves don't pile up increments
	base, err := rewrite(data)
	if err != nil {
		return nil, err
	}
	return appendInfo(base, func(info types.Dict) error {
		for key, val := range map[string]string{
			"Title":    m.Title,
			"Author":   m.Author,
			"Subject":  m.Subject,
			"Keywords": StoredKeywords(m.Keywords),
			"Creator":  m.Creator,
			"Producer": m.Producer,
		} {
			if err := setText(info, key, val); err != nil {
				return err
			}
		}
		setDate(info, "CreationDate", m.CreationDate)
		setDate(info, "ModDate", m.ModDate)
		return nil
	})
}

// stampedKeys are the entries pdfcpu overwrites on every full write.
var stampedKeys = []string{"Producer", "CreationDate", "ModDate"}

func rewrite(data []byte) ([]byte, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, err
	}
	return writeContext(ctx)
}

// appendInfo copies the information dictionary of data into a new object,
// lets fn edit the copy and appends it as an incremental update. pdfcpu
// stamps Producer and both dates only on full writes; an increment is
// written as is.
func appendInfo(data []byte, fn func(info types.Dict) error) ([]byte, error) {
	ctx, err := readContext(data)
	if err != nil {
		return nil, err
	}
	info := types.NewDict()
	if ctx.Info != nil {
		old, err := ctx.DereferenceDict(*ctx.Info)
		if err != nil {
			return nil, fmt.Errorf("info dict: %w", err)
		}
		for k, v := range old {
			info[k] = v
		}
	}
	if err := fn(info); err != nil {
		return nil, err
	}

	objNr, err := ctx.XRefTable.InsertObject(info)
	if err != nil {
		return nil, fmt.Errorf("info dict: %w", err)
	}
	ctx.Info = types.NewIndirectRef(objNr, 0)

	out := bytes.Clone(data)
	if n := len(out); n == 0 || (out[n-1] != '\n' && out[n-1] != '\r') {
		out = append(out, '\n')
	}
	ctx.Write.Increment = true
	ctx.Write.Offset = int64(len(out))
	ctx.Write.IncrementWithObjNr(objNr)
	// the update uses the same cross-reference form as the body it extends
	ctx.WriteXRefStream = ctx.Read.UsingXRefStreams

	buf := bytes.NewBuffer(out)
	if err := api.WriteIncrement(ctx, buf); err != nil {
		return nil, fmt.Errorf("write info: %w", err)
	}
	return buf.Bytes(), nil
}

// keepInfo restores the stamped entries of src on out, so page edits leave
// the document's own producer and dates alone.
func keepInfo(src, out []byte) ([]byte, error) {
	ctx, err := readContext(src)
	if err != nil {
		return nil, err
	}
	kept := types.NewDict()
	if ctx.Info != nil {
		old, err := ctx.DereferenceDict(*ctx.Info)
		if err != nil {
			return nil, fmt.Errorf("info dict: %w", err)
		}
		for _, k := range stampedKeys {
			v, ok := old[k]
			if !ok {
				continue
			}
			if v, err = ctx.Dereference(v); err == nil && v != nil {
				kept[k] = v
			}
		}
	}
	return appendInfo(out, func(info types.Dict) error {
		for _, k := range stampedKeys {
			if v, ok := kept[k]; ok {
				info[k] = v
			} else {
				delete(info, k)
			}
		}
		return nil
	})
}

func setText(info types.Dict, key, val string) error {
	if val == "" {
		delete(info, key)
		return nil
	}
	if !isASCII(val) {
		val = types.EncodeUTF16String(val)
	}
	esc, err := types.Escape(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	info[key] = types.StringLiteral(*esc)
	return nil
}

func setDate(info types.Dict, key string, t *time.Time) {
	if t == nil {
		delete(info, key)
		return
	}
	info[key] = types.StringLiteral(types.DateString(*t))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
