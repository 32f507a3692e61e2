package model

// Level is the severity token of a parsed log line.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// LogEntry is one line that matched the log grammar.
type LogEntry struct {
	Timestamp  string `json:"timestamp"` // YYYY-MM-DD HH:MM:SS, kept verbatim
	Level      Level  `json:"level"`
	Message    string `json:"message"`
	SourceFile string `json:"source_file,omitempty"`
	Raw        string `json:"raw_log"`
}
