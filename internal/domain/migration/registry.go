package migration

import (
	"strings"

	"github.com/google/uuid"

	"github.com/carelog/carelog/internal/domain/encounter"
	"github.com/carelog/carelog/internal/platform/docstore"
)

// legacyTypes maps encounter type labels used by older form versions to the
// canonical set.
var legacyTypes = map[string]encounter.Type{
	"patient":           encounter.TypePatient,
	"patient encounter": encounter.TypePatient,
	"community":         encounter.TypeCommunity,
	"community contact": encounter.TypeCommunity,
	"staff":             encounter.TypeStaff,
	"staff meeting":     encounter.TypeStaff,
	"other":             encounter.TypeOther,
}

// All returns the full migration history in application order. Entries are
// append-only; ids are stable so markers written by earlier releases keep
// their meaning.
func All() []Migration {
	return []Migration{
		{
			ID:        uuid.MustParse("8f5c1c7e-2a74-4f3a-9a1d-6b2f0d9c4e01"),
			Name:      "normalize-encounter-types",
			Selector:  docstore.Query{},
			Transform: normalizeEncounterType,
		},
		{
			ID:        uuid.MustParse("3d0b8a12-95ce-4a6f-b7a4-c81e5f20d902"),
			Name:      "canonicalize-declined-scores",
			Selector:  docstore.Query{"encounter_type": "patient"},
			Transform: canonicalizeDeclinedScores,
		},
		{
			ID:        uuid.MustParse("b61f4e0a-70dd-4c2b-8a3e-1f9c62d7aa03"),
			Name:      "trim-identifier-whitespace",
			Selector:  docstore.Query{"encounter_type": "patient"},
			Transform: trimIdentifiers,
		},
		{
			ID:        uuid.MustParse("59ac2d84-e116-48b9-93f0-7d45b80c1b04"),
			Name:      "backfill-owner-id",
			Selector:  docstore.Query{"owner_id": docstore.Missing},
			Transform: backfillOwnerID,
		},
	}
}

func normalizeEncounterType(r encounter.Record) encounter.Record {
	key := strings.ToLower(strings.TrimSpace(string(r.EncounterType)))
	if t, ok := legacyTypes[key]; ok {
		r.EncounterType = t
	} else {
		r.EncounterType = encounter.TypeOther
	}
	return r
}

// canonicalizeDeclinedScores rewrites the declined spellings older form
// versions allowed ("NA", "declined", ...) to the canonical "n/a".
func canonicalizeDeclinedScores(r encounter.Record) encounter.Record {
	r.Scores.GAD7 = canonicalScore(r.Scores.GAD7)
	r.Scores.PHQ9 = canonicalScore(r.Scores.PHQ9)
	r.Scores.MoCA = canonicalScore(r.Scores.MoCA)
	return r
}

func canonicalScore(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "n/a", "na", "n.a.", "declined", "refused":
		return "n/a"
	default:
		return strings.TrimSpace(raw)
	}
}

func trimIdentifiers(r encounter.Record) encounter.Record {
	r.MRNSwedish = strings.TrimSpace(r.MRNSwedish)
	r.MRNProvidence = strings.TrimSpace(r.MRNProvidence)
	return r
}

// backfillOwnerID assigns pre-multi-user records to the legacy owner so
// unique ids stay stable for documents created before owners existed.
func backfillOwnerID(r encounter.Record) encounter.Record {
	if strings.TrimSpace(r.OwnerID) == "" {
		r.OwnerID = "legacy"
	}
	return r
}
