package inference

import (
	"strings"

	"github.com/carelog/carelog/internal/domain/encounter"
)

// Infer reconciles the two MRN namespaces across a snapshot of patient
// records into a consistent bidirectional mapping.
//
// Records carrying both MRNs are direct evidence of a pairing. Evidence that
// contradicts an existing pairing on either side quarantines both implicated
// identifiers as Conflict rather than preferring one entry over the other:
// two independently keyed identifier systems should agree 1:1 for a
// correctly entered patient, so disagreement means a data-entry error on one
// side and neither value can be trusted for backfill.
//
// Inference never fails; a mapping where everything ended up conflicted is a
// valid terminal state.
func Infer(records []encounter.Record) Mapping {
	ab := map[string]Link{}
	ba := map[string]Link{}

	for {
		var changed bool
		ab, ba, changed = pass(records, ab, ba)
		if !changed {
			break
		}
	}

	// Single-hop consistency sweeps: a mapped entry pointing at a key that
	// conflicted on the other side is itself demoted. Multi-step conflict
	// chains are deliberately not chased.
	for a, l := range ab {
		if mrn, ok := l.MRN(); ok && ba[mrn].IsConflict() {
			ab[a] = Conflict
		}
	}
	for b, l := range ba {
		if mrn, ok := l.MRN(); ok && ab[mrn].IsConflict() {
			ba[b] = Conflict
		}
	}

	return Mapping{SwedishToProvidence: ab, ProvidenceToSwedish: ba}
}

// pass runs one full sweep over the records. It leaves its inputs untouched
// and returns fresh dictionaries, so no state is shared across passes beyond
// the two maps being built.
func pass(records []encounter.Record, prevAB, prevBA map[string]Link) (map[string]Link, map[string]Link, bool) {
	ab := make(map[string]Link, len(prevAB))
	ba := make(map[string]Link, len(prevBA))
	for k, v := range prevAB {
		ab[k] = v
	}
	for k, v := range prevBA {
		ba[k] = v
	}

	changed := false
	for _, r := range records {
		a := strings.TrimSpace(r.MRNSwedish)
		b := strings.TrimSpace(r.MRNProvidence)
		if a == "" || b == "" {
			continue
		}

		la, haveA := ab[a]
		lb, haveB := ba[b]

		switch {
		case !haveA && !haveB:
			ab[a] = MappedTo(b)
			ba[b] = MappedTo(a)
			changed = true
		case (haveA && la != MappedTo(b)) || (haveB && lb != MappedTo(a)):
			if ab[a] != Conflict {
				ab[a] = Conflict
				changed = true
			}
			if ba[b] != Conflict {
				ba[b] = Conflict
				changed = true
			}
		}
	}
	return ab, ba, changed
}
