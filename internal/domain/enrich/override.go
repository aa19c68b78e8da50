package enrich

// Override is a manually accepted correction for one record, keyed by the
// record's unique id. Overrides always outrank inferred values for that
// record; nil fields leave the record's own value in place.
type Override struct {
	UniqueID      string  `json:"unique_id" yaml:"unique_id"`
	DateOfBirth   *string `json:"date_of_birth,omitempty" yaml:"date_of_birth,omitempty"`
	MRNSwedish    *string `json:"mrn_swedish,omitempty" yaml:"mrn_swedish,omitempty"`
	MRNProvidence *string `json:"mrn_providence,omitempty" yaml:"mrn_providence,omitempty"`
}

// Lookup resolves a record's unique id to its authoritative override.
type Lookup map[string]Override

// NewLookup indexes overrides by unique id. When several overrides target
// the same record, the last one in supplied order wins: the list is ordered
// by acceptance time and the most recently accepted fix is authoritative.
func NewLookup(overrides []Override) Lookup {
	l := make(Lookup, len(overrides))
	for _, o := range overrides {
		l[o.UniqueID] = o
	}
	return l
}
