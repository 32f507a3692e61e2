package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"log-triage-backend/internal/model"
	"log-triage-backend/internal/parser"

	"github.com/rs/zerolog/log"
)

// ErrNoInputFiles is returned when none of the requested inputs could be read.
var ErrNoInputFiles = errors.New("no readable input files")

const maxLineBytes = 1024 * 1024

// ReadResult holds the parsed events of all readable inputs, in argument order.
type ReadResult struct {
	Entries   []model.LogEntry
	LinesRead int
	Files     []string
	Missing   []string
}

// ReadInputs expands directories to their *.log files, reads every file in
// order and parses each line. Non-matching lines are dropped. It fails with
// ErrNoInputFiles when nothing could be read.
func ReadInputs(ctx context.Context, p parser.LogParser, inputs []string) (ReadResult, error) {
	var res ReadResult
	if len(inputs) == 0 {
		return res, fmt.Errorf("%w: no input paths given", ErrNoInputFiles)
	}

	for _, path := range expandInputs(inputs, &res.Missing) {
		lines, entries, err := readFile(ctx, p, path)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			log.Error().Err(err).Str("file", path).Msg("Failed to read input file")
			res.Missing = append(res.Missing, path)
			continue
		}
		res.Files = append(res.Files, path)
		res.LinesRead += lines
		res.Entries = append(res.Entries, entries...)
		log.Debug().Str("file", path).Int("lines_read", lines).Int("events", len(entries)).Msg("Read input file")
	}

	if len(res.Files) == 0 {
		return res, fmt.Errorf("%w: %s", ErrNoInputFiles, strings.Join(res.Missing, ", "))
	}
	return res, nil
}

func expandInputs(inputs []string, missing *[]string) []string {
	var files []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			log.Warn().Err(err).Str("file", in).Msg("Input not found")
			*missing = append(*missing, in)
			continue
		}
		if !info.IsDir() {
			files = append(files, in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			log.Warn().Err(err).Str("dir", in).Msg("Failed to read input directory")
			*missing = append(*missing, in)
			continue
		}
		var found []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
				found = append(found, filepath.Join(in, e.Name()))
			}
		}
		sort.Strings(found)
		if len(found) == 0 {
			log.Warn().Str("dir", in).Msg("Input directory has no .log files")
			*missing = append(*missing, in)
		}
		files = append(files, found...)
	}
	return files
}

func readFile(ctx context.Context, p parser.LogParser, path string) (int, []model.LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, 64*1024)

	var linesRead int
	var entries []model.LogEntry
	for {
		if linesRead%1024 == 0 && ctx.Err() != nil {
			return linesRead, entries, ctx.Err()
		}
		line, tooLong, err := readLine(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			return linesRead, entries, fmt.Errorf("error reading file %s: %w", path, err)
		}
		linesRead++
		if tooLong {
			log.Debug().Str("file", path).Int("line", linesRead).Msg("Dropping line longer than the line limit")
			continue
		}
		line = strings.TrimRight(line, "\r")
		if entry, ok := p.Parse(line, path); ok {
			entries = append(entries, *entry)
		}
	}
	return linesRead, entries, nil
}

// readLine returns the next line without its terminator. A line over
// maxLineBytes is consumed and reported as tooLong with no content.
func readLine(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			if err == io.EOF && (len(buf) > 0 || tooLong) {
				return string(buf), tooLong, nil
			}
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}
