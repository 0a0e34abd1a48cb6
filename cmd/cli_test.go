package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/job-tracker/internal/apperr"
	"github.com/MimeLyc/job-tracker/internal/jobs"
	"github.com/MimeLyc/job-tracker/pkg/log"
)

// runCLI executes the root command against a sqlite store in dataDir.
func runCLI(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("EXPORT_CRON", "")
	t.Setenv("EXPORT_FORMAT", "")
	t.Setenv("EXPORT_DIR", "")
	t.Setenv("LOG_FILE", "")

	var out, errOut bytes.Buffer
	err := execute(context.Background(), append([]string{"--data-dir", dataDir}, args...), &out, &errOut)
	return out.String(), err
}

func TestCLI_AddListRemove(t *testing.T) {
	dataDir := t.TempDir()

	out, err := runCLI(t, dataDir, "add", "Backend Engineer", "Go and SQL")
	require.NoError(t, err)
	assert.Equal(t, "Added job 1\n", out)

	out, err = runCLI(t, dataDir, "add", "SRE")
	require.NoError(t, err)
	assert.Equal(t, "Added job 2\n", out)

	out, err = runCLI(t, dataDir, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "Go and SQL")
	assert.Contains(t, out, "SRE")

	out, err = runCLI(t, dataDir, "remove", "2")
	require.NoError(t, err)
	assert.Equal(t, "Removed job 2\n", out)

	out, err = runCLI(t, dataDir, "add", "Data Engineer")
	require.NoError(t, err)
	assert.Equal(t, "Added job 3\n", out)
}

func TestCLI_AddRejectsBlankTitle(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "add", "   ")
	require.Error(t, err)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrValidation))
}

func TestCLI_RemoveErrors(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCLI(t, dataDir, "remove", "abc")
	require.Error(t, err)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrValidation))

	_, err = runCLI(t, dataDir, "remove", "9")
	require.Error(t, err)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrNotFound))
}

func TestCLI_ListEmpty(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "list")
	require.NoError(t, err)
	assert.Equal(t, "No jobs found\n", out)
}

func TestCLI_ClearKeepsCounter(t *testing.T) {
	dataDir := t.TempDir()
	for _, title := range []string{"a", "b"} {
		_, err := runCLI(t, dataDir, "add", title)
		require.NoError(t, err)
	}

	out, err := runCLI(t, dataDir, "clear")
	require.NoError(t, err)
	assert.Equal(t, "Cleared 2 jobs\n", out)

	out, err = runCLI(t, dataDir, "add", "c")
	require.NoError(t, err)
	assert.Equal(t, "Added job 3\n", out)
}

func TestCLI_ExportFiles(t *testing.T) {
	dataDir := t.TempDir()
	_, err := runCLI(t, dataDir, "add", "Backend Engineer", "Go, SQL")
	require.NoError(t, err)

	jsonPath := filepath.Join(t.TempDir(), "out", "jobs.json")
	out, err := runCLI(t, dataDir, "export", "--file", jsonPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 jobs to "+jsonPath)

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded []jobs.Job
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Go, SQL", decoded[0].Description)

	csvPath := filepath.Join(t.TempDir(), "jobs.csv")
	_, err = runCLI(t, dataDir, "export", "--format", "csv", "--file", csvPath)
	require.NoError(t, err)
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Backend Engineer", records[1][1])
}

func TestCLI_ExportAddsExtension(t *testing.T) {
	dataDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "backup")

	_, err := runCLI(t, dataDir, "export", "--format", "csv", "--file", target)
	require.NoError(t, err)
	assert.FileExists(t, target+".csv")
}

func TestCLI_ExportToStdout(t *testing.T) {
	out, err := runCLI(t, t.TempDir(), "export", "--format", "csv", "--file", "-")
	require.NoError(t, err)
	assert.Equal(t, "id,title,description,created_at\n", out)
}

func TestCLI_ExportUnsupportedFormat(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "export", "--format", "xml", "--file", "-")
	require.Error(t, err)
	assert.True(t, apperr.IsErrorType(err, apperr.ErrUnsupportedFormat))
}

func TestCLI_MemoryStoreDoesNotPersist(t *testing.T) {
	dataDir := t.TempDir()

	_, err := runCLI(t, dataDir, "--store", "memory", "add", "ephemeral")
	require.NoError(t, err)

	out, err := runCLI(t, dataDir, "--store", "memory", "list")
	require.NoError(t, err)
	assert.Equal(t, "No jobs found\n", out)
	assert.NoFileExists(t, filepath.Join(dataDir, "job_tracker.db"))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "abcd…", clip("abcdefgh", 5))
	assert.Equal(t, "a b", clip(" a\n b ", 5))
	assert.Equal(t, "日本…", clip("日本語テキスト", 5))
	assert.Equal(t, "日本", clip("日本", 4))
}

func TestCLI_FailureReleasesLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "tracker.log")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("EXPORT_CRON", "")
	t.Setenv("EXPORT_FORMAT", "")
	t.Setenv("EXPORT_DIR", "")
	t.Setenv("LOG_FILE", logPath)

	var out, errOut bytes.Buffer
	err := execute(context.Background(), []string{"--data-dir", t.TempDir(), "remove", "abc"}, &out, &errOut)
	require.Error(t, err)

	log.Info("written after the command returned")

	data, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Command failed")
	assert.NotContains(t, string(data), "written after the command returned")
	assert.Contains(t, errOut.String(), "written after the command returned")
}
