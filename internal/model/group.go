package model

// LevelCounts holds per-level event counts for one group.
type LevelCounts struct {
	Info  int `json:"INFO"`
	Warn  int `json:"WARN"`
	Error int `json:"ERROR"`
}

// Add increments the counter for level. Unknown levels are ignored.
func (c *LevelCounts) Add(level Level) {
	switch level {
	case LevelInfo:
		c.Info++
	case LevelWarn:
		c.Warn++
	case LevelError:
		c.Error++
	}
}

func (c LevelCounts) Get(level Level) int {
	switch level {
	case LevelInfo:
		return c.Info
	case LevelWarn:
		return c.Warn
	case LevelError:
		return c.Error
	}
	return 0
}

func (c LevelCounts) Total() int {
	return c.Info + c.Warn + c.Error
}

// Group is the aggregation record for one signature.
type Group struct {
	Signature         string      `json:"signature"`
	Count             int         `json:"count"`
	Levels            LevelCounts `json:"levels"`
	Examples          []string    `json:"examples"`
	ProbableRootCause string      `json:"probable_root_cause"`
	Recommendation    string      `json:"recommendation"`
	Exceptions        []string    `json:"exceptions,omitempty"`
}

// Clone returns a deep copy so later stages never alias the aggregator's slices.
func (g Group) Clone() Group {
	out := g
	if g.Examples != nil {
		out.Examples = append([]string(nil), g.Examples...)
	}
	if g.Exceptions != nil {
		out.Exceptions = append([]string(nil), g.Exceptions...)
	}
	return out
}

func CloneGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.Clone()
	}
	return out
}
