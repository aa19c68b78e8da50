package enrich

import (
	"strconv"
	"strings"
)

// Severity labels shared by the assessment scales.
const (
	LabelDeclined         = "Declined"
	LabelSevere           = "Severe"
	LabelModeratelySevere = "Moderately severe"
	LabelModerate         = "Moderate"
	LabelMild             = "Mild/minimal/none"
	LabelNormal           = "Normal"
	LabelCognitiveConcern = "May indicate cognitive impairment"
)

// parseScore interprets a raw score field. declined is true for the literal
// "n/a" in any casing; ok is false when the field is neither that nor a
// non-negative integer, in which case no label is produced.
func parseScore(raw string) (n int, declined, ok bool) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "n/a") {
		return 0, true, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false, false
	}
	return n, false, true
}

// GAD7Label maps a raw GAD-7 score to its severity label.
func GAD7Label(raw string) (string, bool) {
	n, declined, ok := parseScore(raw)
	switch {
	case !ok:
		return "", false
	case declined:
		return LabelDeclined, true
	case n >= 15:
		return LabelSevere, true
	case n >= 10:
		return LabelModerate, true
	default:
		return LabelMild, true
	}
}

// PHQ9Label maps a raw PHQ-9 score to its severity label.
func PHQ9Label(raw string) (string, bool) {
	n, declined, ok := parseScore(raw)
	switch {
	case !ok:
		return "", false
	case declined:
		return LabelDeclined, true
	case n >= 20:
		return LabelSevere, true
	case n >= 15:
		return LabelModeratelySevere, true
	case n >= 10:
		return LabelModerate, true
	default:
		return LabelMild, true
	}
}

// MoCALabel maps a raw MoCA score to its screening label. 26 and above is
// within normal limits.
func MoCALabel(raw string) (string, bool) {
	n, declined, ok := parseScore(raw)
	switch {
	case !ok:
		return "", false
	case declined:
		return LabelDeclined, true
	case n >= 26:
		return LabelNormal, true
	default:
		return LabelCognitiveConcern, true
	}
}
