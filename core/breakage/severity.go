package breakage

import "fmt"

// Severity ranks how disruptive a breakage is to downstream consumers.
type Severity int

const (
	SeverityVeryLow Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityVeryHigh
)

var severityNames = [...]string{
	SeverityVeryLow:  "very-low",
	SeverityLow:      "low",
	SeverityMedium:   "medium",
	SeverityHigh:     "high",
	SeverityVeryHigh: "very-high",
}

// Up returns the next higher severity, saturating at SeverityVeryHigh.
func (s Severity) Up() Severity {
	if s >= SeverityVeryHigh {
		return SeverityVeryHigh
	}
	return s + 1
}

// Down returns the next lower severity, saturating at SeverityVeryLow.
func (s Severity) Down() Severity {
	if s <= SeverityVeryLow {
		return SeverityVeryLow
	}
	return s - 1
}

func (s Severity) String() string {
	if s < SeverityVeryLow || s > SeverityVeryHigh {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// ParseSeverity converts a label such as "very-high" to a Severity.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if name == s {
			return Severity(i), nil
		}
	}
	return SeverityVeryLow, fmt.Errorf("unknown severity %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
