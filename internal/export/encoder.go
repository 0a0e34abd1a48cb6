package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/MimeLyc/job-tracker/internal/apperr"
	"github.com/MimeLyc/job-tracker/internal/jobs"
)

// TimeLayout is used for created_at in both formats.
const TimeLayout = time.RFC3339Nano

var Header = []string{"id", "title", "description", "created_at"}

type record struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// Encode serializes snapshot in the given format, keeping its order.
func Encode(snapshot []jobs.Job, f Format) ([]byte, error) {
	if !f.valid() {
		return nil, unsupported(f.String())
	}

	var buf bytes.Buffer
	var err error
	switch f {
	case FormatJSON:
		err = encodeJSON(&buf, snapshot)
	case FormatCSV:
		err = encodeCSV(&buf, snapshot)
	}
	if err != nil {
		return nil, apperr.WrapError(err, apperr.ErrUnknown, "failed to encode jobs").WithContext("format", f.String())
	}
	return buf.Bytes(), nil
}

func encodeJSON(buf *bytes.Buffer, snapshot []jobs.Job) error {
	records := make([]record, 0, len(snapshot))
	for _, job := range snapshot {
		records = append(records, record{
			ID:          job.ID,
			Title:       job.Title,
			Description: job.Description,
			CreatedAt:   formatTime(job.CreatedAt),
		})
	}

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func encodeCSV(buf *bytes.Buffer, snapshot []jobs.Job) error {
	w := csv.NewWriter(buf)
	if err := w.Write(Header); err != nil {
		return err
	}
	for _, job := range snapshot {
		row := []string{
			strconv.FormatUint(job.ID, 10),
			job.Title,
			job.Description,
			formatTime(job.CreatedAt),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}
