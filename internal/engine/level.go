package engine

import (
	"encoding/json"
	"strings"
)

// Severity ranks a finding. The zero value is medium; high outranks it.
type Severity int

const (
	SeverityMedium Severity = iota
	SeverityHigh
)

// ParseSeverity maps rulebook severity strings; anything but "high" is medium.
func ParseSeverity(s string) Severity {
	if strings.EqualFold(strings.TrimSpace(s), "high") {
		return SeverityHigh
	}
	return SeverityMedium
}

func (s Severity) String() string {
	if s == SeverityHigh {
		return "high"
	}
	return "medium"
}

func (s Severity) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ParseSeverity(str)
	return nil
}

// Level is the traffic-light verdict with a total order: green < yellow < red.
// Every adopt-if-better comparison goes through this ordering.
type Level int

const (
	LevelGreen Level = iota
	LevelYellow
	LevelRed
)

func (l Level) String() string {
	switch l {
	case LevelRed:
		return "red"
	case LevelYellow:
		return "yellow"
	default:
		return "green"
	}
}

func (l Level) MarshalJSON() ([]byte, error) { return json.Marshal(l.String()) }

func (l *Level) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, ok := ParseLevel(str)
	if ok {
		*l = parsed
	}
	return nil
}

// ParseLevel recognizes the three verdict levels, case-insensitively.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "green":
		return LevelGreen, true
	case "yellow":
		return LevelYellow, true
	case "red":
		return LevelRed, true
	}
	return LevelGreen, false
}

// LevelFor aggregates: green with zero issues, red with any high finding,
// yellow otherwise.
func LevelFor(issueCount int, high bool) Level {
	switch {
	case issueCount == 0:
		return LevelGreen
	case high:
		return LevelRed
	default:
		return LevelYellow
	}
}
