package inference

import (
	"testing"

	"github.com/carelog/carelog/internal/domain/encounter"
)

func patientRec(id, swedish, providence string) encounter.Record {
	return encounter.Record{
		ID:            id,
		OwnerID:       "clinic",
		EncounterType: encounter.TypePatient,
		MRNSwedish:    swedish,
		MRNProvidence: providence,
	}
}

func TestInferPairsBothDirections(t *testing.T) {
	m := Infer([]encounter.Record{patientRec("1", "S1", "P1")})

	if got, ok := m.ProvidenceFor("S1"); !ok || got != "P1" {
		t.Fatalf("ProvidenceFor(S1) = %q, %v", got, ok)
	}
	if got, ok := m.SwedishFor("P1"); !ok || got != "S1" {
		t.Fatalf("SwedishFor(P1) = %q, %v", got, ok)
	}
}

func TestInferIgnoresRecordsMissingEitherMRN(t *testing.T) {
	m := Infer([]encounter.Record{
		patientRec("1", "S1", ""),
		patientRec("2", "", "P1"),
		patientRec("3", "  ", "P2"),
	})

	if len(m.SwedishToProvidence) != 0 || len(m.ProvidenceToSwedish) != 0 {
		t.Fatalf("expected empty mapping, got %v / %v", m.SwedishToProvidence, m.ProvidenceToSwedish)
	}
}

func TestInferConflictOnSharedSwedishMRN(t *testing.T) {
	// Two records share S1 but disagree on the Providence side: quarantine
	// S1 and both Providence values.
	m := Infer([]encounter.Record{
		patientRec("1", "S1", "P1"),
		patientRec("2", "S1", "P2"),
	})

	if !m.SwedishToProvidence["S1"].IsConflict() {
		t.Errorf("aToB[S1] = %v, want conflict", m.SwedishToProvidence["S1"])
	}
	if !m.ProvidenceToSwedish["P1"].IsConflict() {
		t.Errorf("bToA[P1] = %v, want conflict", m.ProvidenceToSwedish["P1"])
	}
	if !m.ProvidenceToSwedish["P2"].IsConflict() {
		t.Errorf("bToA[P2] = %v, want conflict", m.ProvidenceToSwedish["P2"])
	}
}

func TestInferSymmetryInvariant(t *testing.T) {
	records := []encounter.Record{
		patientRec("1", "S1", "P1"),
		patientRec("2", "S2", "P2"),
		patientRec("3", "S2", "P3"),
		patientRec("4", "S4", "P2"),
		patientRec("5", "S5", "P5"),
		patientRec("6", "S5", "P5"),
	}

	m := Infer(records)
	for a, l := range m.SwedishToProvidence {
		b, ok := l.MRN()
		if !ok {
			continue
		}
		back := m.ProvidenceToSwedish[b]
		if got, _ := back.MRN(); !back.IsConflict() && got != a {
			t.Errorf("aToB[%s]=mapped(%s) but bToA[%s]=%v", a, b, b, back)
		}
	}
	for b, l := range m.ProvidenceToSwedish {
		a, ok := l.MRN()
		if !ok {
			continue
		}
		back := m.SwedishToProvidence[a]
		if got, _ := back.MRN(); !back.IsConflict() && got != b {
			t.Errorf("bToA[%s]=mapped(%s) but aToB[%s]=%v", b, a, a, back)
		}
	}
}

func TestInferConflictIsPermanentAcrossReruns(t *testing.T) {
	records := []encounter.Record{
		patientRec("1", "S1", "P1"),
		patientRec("2", "S1", "P2"),
		patientRec("3", "S1", "P1"), // re-asserts the first pairing
	}

	for i := 0; i < 3; i++ {
		m := Infer(records)
		if !m.SwedishToProvidence["S1"].IsConflict() {
			t.Fatalf("run %d: aToB[S1] = %v, want conflict", i, m.SwedishToProvidence["S1"])
		}
	}
}

func TestInferOrderIndependentConflict(t *testing.T) {
	// The conflicting record appearing first must converge to the same
	// quarantine set as it appearing last.
	forward := Infer([]encounter.Record{
		patientRec("1", "S1", "P1"),
		patientRec("2", "S1", "P2"),
	})
	reversed := Infer([]encounter.Record{
		patientRec("2", "S1", "P2"),
		patientRec("1", "S1", "P1"),
	})

	for _, key := range []string{"P1", "P2"} {
		if !forward.ProvidenceToSwedish[key].IsConflict() || !reversed.ProvidenceToSwedish[key].IsConflict() {
			t.Errorf("bToA[%s] not conflicted in both orders", key)
		}
	}
}

func TestInferConflictNeverBackfills(t *testing.T) {
	m := Infer([]encounter.Record{
		patientRec("1", "S1", "P1"),
		patientRec("2", "S1", "P2"),
	})

	if v, ok := m.ProvidenceFor("S1"); ok {
		t.Errorf("ProvidenceFor(S1) = %q, want no value from a conflicted entry", v)
	}
}

func TestStats(t *testing.T) {
	m := Infer([]encounter.Record{
		patientRec("1", "S1", "P1"),
		patientRec("2", "S2", "P2"),
		patientRec("3", "S2", "P3"),
	})

	s := m.Stats()
	if s.MappedPairs != 1 {
		t.Errorf("MappedPairs = %d, want 1", s.MappedPairs)
	}
	// S2 plus P2 and P3.
	if s.Conflicts != 3 {
		t.Errorf("Conflicts = %d, want 3", s.Conflicts)
	}
}
