package export

import (
	"strings"

	"github.com/MimeLyc/job-tracker/internal/apperr"
)

type Format int

const (
	FormatJSON Format = iota + 1
	FormatCSV
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatJSON, FormatCSV}

// Names returns the names of Formats, e.g. "json, csv".
func Names() string {
	names := make([]string, 0, len(Formats))
	for _, f := range Formats {
		names = append(names, f.String())
	}
	return strings.Join(names, ", ")
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return 0, unsupported(s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	default:
		return "unknown"
	}
}

func (f Format) Ext() string {
	return "." + f.String()
}

func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// FileName is the download name offered to clients.
func (f Format) FileName() string {
	return "jobs" + f.Ext()
}

func (f Format) valid() bool {
	return f == FormatJSON || f == FormatCSV
}

// Request is the export request accepted at the API boundary.
type Request struct {
	Format string `json:"format"`
}

func (r Request) Parse() (Format, error) {
	return ParseFormat(r.Format)
}

func unsupported(tag string) *apperr.Error {
	return apperr.NewError(apperr.ErrUnsupportedFormat, "unsupported export format, valid formats: "+Names()).
		WithContext("format", tag)
}
