package model

import "fmt"

// Severity ranks a status so callers can sort or alert without knowing thresholds.
type Severity int

const (
	SeverityNormal Severity = iota
	SeverityCaution
	SeverityWarning
	SeverityDanger
	SeverityCrisis
)

var severityNames = []string{"normal", "caution", "warning", "danger", "crisis"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// ParseSeverity maps a name back to its rank. Unknown names yield false.
func ParseSeverity(name string) (Severity, bool) {
	for i, n := range severityNames {
		if n == name {
			return Severity(i), true
		}
	}
	return SeverityNormal, false
}

// MarshalText renders the severity by name in JSON and YAML.
func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	v, ok := ParseSeverity(string(b))
	if !ok {
		return fmt.Errorf("unknown severity %q", b)
	}
	*s = v
	return nil
}

// StatusBand is one row of a classification table.
type StatusBand struct {
	Label    string
	Severity Severity
	Color    string
	Match    func(Sample) bool
}

// Status is the result of classifying a sample.
type Status struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
	Color    string   `json:"color"`
}

// Level is the severity name, used in JSON and messages.
func (s Status) Level() string { return s.Severity.String() }
