package parser

import (
	"regexp"
	"strings"

	"log-triage-backend/internal/model"

	"github.com/rs/zerolog/log"
)

type LogParser interface {
	// Parse returns the entry for a line matching the grammar, or false when it does not match.
	Parse(line string, sourceFile string) (*model.LogEntry, bool)
}

type simpleLogParser struct {
	logRegex *regexp.Regexp
}

func NewSimpleLogParser() LogParser {
	// Groups: 1:Timestamp, 2:Level, 3:Message
	regex := regexp.MustCompile(`^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\s+\[(INFO|WARN|ERROR)\]\s+(.*)`)
	return &simpleLogParser{logRegex: regex}
}

func (p *simpleLogParser) Parse(line string, sourceFile string) (*model.LogEntry, bool) {
	matches := p.logRegex.FindStringSubmatch(line)
	if len(matches) != 4 {
		log.Trace().Str("line", line).Msg("Log line did not match expected format")
		return nil, false
	}

	return &model.LogEntry{
		Timestamp:  matches[1],
		Level:      model.Level(matches[2]),
		Message:    strings.TrimSpace(matches[3]),
		SourceFile: sourceFile,
		Raw:        line,
	}, true
}

// ParseLines parses lines in order and drops the ones that do not match.
func ParseLines(p LogParser, lines []string, sourceFile string) []model.LogEntry {
	entries := make([]model.LogEntry, 0, len(lines))
	for _, line := range lines {
		if entry, ok := p.Parse(line, sourceFile); ok {
			entries = append(entries, *entry)
		}
	}
	return entries
}
