package inference

// linkKind discriminates the states an identifier can be in within one
// namespace mapping.
type linkKind int

const (
	kindUnmapped linkKind = iota
	kindMapped
	kindConflict
)

// Link is the mapping state for a single identifier: unmapped (zero value),
// mapped to exactly one identifier in the other namespace, or conflict.
// Conflict is terminal: once evidence contradicts a 1:1 mapping the
// identifier is quarantined and never used to infer a value.
type Link struct {
	kind linkKind
	mrn  string
}

// Conflict is the quarantine marker. Links compare with ==, so a conflicted
// entry never equals any mapped one.
var Conflict = Link{kind: kindConflict}

// MappedTo returns a Link mapped to the given identifier.
func MappedTo(mrn string) Link { return Link{kind: kindMapped, mrn: mrn} }

// IsMapped reports whether the link carries a usable identifier.
func (l Link) IsMapped() bool { return l.kind == kindMapped }

// IsConflict reports whether the identifier is quarantined.
func (l Link) IsConflict() bool { return l.kind == kindConflict }

// MRN returns the mapped identifier, if any.
func (l Link) MRN() (string, bool) {
	if l.kind != kindMapped {
		return "", false
	}
	return l.mrn, true
}

func (l Link) String() string {
	switch l.kind {
	case kindMapped:
		return "mapped(" + l.mrn + ")"
	case kindConflict:
		return "conflict"
	default:
		return "unmapped"
	}
}

// Mapping is the bidirectional identifier mapping between the Swedish (A)
// and Providence (B) MRN namespaces. Absent keys are unmapped.
type Mapping struct {
	SwedishToProvidence map[string]Link
	ProvidenceToSwedish map[string]Link
}

// ProvidenceFor returns the Providence MRN inferred for a Swedish MRN. It
// returns false for unmapped and conflicted entries alike; a conflicted
// identifier never backfills a value.
func (m Mapping) ProvidenceFor(swedish string) (string, bool) {
	return m.SwedishToProvidence[swedish].MRN()
}

// SwedishFor returns the Swedish MRN inferred for a Providence MRN, with the
// same conflict semantics as ProvidenceFor.
func (m Mapping) SwedishFor(providence string) (string, bool) {
	return m.ProvidenceToSwedish[providence].MRN()
}

// Stats summarizes a mapping for reporting.
type Stats struct {
	MappedPairs int `json:"mapped_pairs"`
	Conflicts   int `json:"conflicts"`
}

// Stats counts mapped A-side entries and conflicted keys on both sides.
func (m Mapping) Stats() Stats {
	var s Stats
	for _, l := range m.SwedishToProvidence {
		if l.IsMapped() {
			s.MappedPairs++
		} else if l.IsConflict() {
			s.Conflicts++
		}
	}
	for _, l := range m.ProvidenceToSwedish {
		if l.IsConflict() {
			s.Conflicts++
		}
	}
	return s
}
