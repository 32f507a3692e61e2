package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"log-triage-backend/internal/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadInputs_ConcatenatesInOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", "2024-01-01 10:00:00 [INFO] first")
	b := writeLog(t, dir, "b.log", "2024-01-01 10:00:01 [WARN] second\r", "2024-01-01 10:00:02 [DEBUG] ignored")

	res, err := ReadInputs(context.Background(), parser.NewSimpleLogParser(), []string{b, a})
	require.NoError(t, err)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, "second", res.Entries[0].Message)
	assert.Equal(t, "first", res.Entries[1].Message)
	assert.Equal(t, 3, res.LinesRead)
	assert.Equal(t, []string{b, a}, res.Files)
}

func TestReadInputs_MissingFileSkipped(t *testing.T) {
	dir := t.TempDir()
	a := writeLog(t, dir, "a.log", "2024-01-01 10:00:00 [INFO] first")
	missing := filepath.Join(dir, "gone.log")

	res, err := ReadInputs(context.Background(), parser.NewSimpleLogParser(), []string{missing, a})
	require.NoError(t, err)

	assert.Equal(t, []string{missing}, res.Missing)
	assert.Len(t, res.Entries, 1)
}

func TestReadInputs_Directory(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "b.log", "2024-01-01 10:00:01 [INFO] b")
	writeLog(t, dir, "a.log", "2024-01-01 10:00:00 [INFO] a")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("2024-01-01 10:00:00 [INFO] skip"), 0o644))

	res, err := ReadInputs(context.Background(), parser.NewSimpleLogParser(), []string{dir})
	require.NoError(t, err)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, "a", res.Entries[0].Message)
}

func TestReadInputs_OverlongLineDropped(t *testing.T) {
	dir := t.TempDir()
	long := "2024-01-01 10:00:01 [INFO] " + strings.Repeat("x", 2*1024*1024)
	path := writeLog(t, dir, "app.log",
		"2024-01-01 10:00:00 [ERROR] before",
		long,
		"2024-01-01 10:00:02 [ERROR] after",
	)

	res, err := ReadInputs(context.Background(), parser.NewSimpleLogParser(), []string{path})
	require.NoError(t, err)

	require.Len(t, res.Entries, 2)
	assert.Equal(t, "before", res.Entries[0].Message)
	assert.Equal(t, "after", res.Entries[1].Message)
	assert.Equal(t, 3, res.LinesRead)
	assert.Equal(t, []string{path}, res.Files)
	assert.Empty(t, res.Missing)
}

func TestReadInputs_NothingReadable(t *testing.T) {
	_, err := ReadInputs(context.Background(), parser.NewSimpleLogParser(), []string{"/nope/a.log", "/nope/b.log"})

	require.ErrorIs(t, err, ErrNoInputFiles)
	assert.Contains(t, err.Error(), "/nope/a.log, /nope/b.log")
}

func TestReadInputs_NoPaths(t *testing.T) {
	_, err := ReadInputs(context.Background(), parser.NewSimpleLogParser(), nil)
	assert.ErrorIs(t, err, ErrNoInputFiles)
}
