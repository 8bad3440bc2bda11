package entity

import (
	"fmt"
	"strings"
)

// ReadinessLabels is the closed set of migration-cluster states.
var ReadinessLabels = []string{
	"Not Started",
	"Planned",
	"In Progress",
	"Executed",
	"On Hold",
	"Blocked",
	"Cancelled",
}

// ParseReadinessLabel matches s against ReadinessLabels ignoring case and
// surrounding space, and returns the canonical spelling.
func ParseReadinessLabel(s string) (string, error) {
	t := strings.Join(strings.Fields(s), " ")
	for _, label := range ReadinessLabels {
		if strings.EqualFold(label, t) {
			return label, nil
		}
	}
	return "", fmt.Errorf("unknown readiness label %q", s)
}
