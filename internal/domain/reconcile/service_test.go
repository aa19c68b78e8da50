package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/carelog/carelog/internal/domain/encounter"
	"github.com/carelog/carelog/internal/domain/enrich"
	"github.com/carelog/carelog/internal/domain/migration"
	"github.com/carelog/carelog/internal/platform/docstore"
	"github.com/carelog/carelog/internal/platform/progress"
)

type fakeFixes struct {
	overrides []enrich.Override
	err       error
}

func (f *fakeFixes) List(context.Context) ([]enrich.Override, error) {
	return f.overrides, f.err
}

func (f *fakeFixes) Add(_ context.Context, o enrich.Override) error {
	f.overrides = append(f.overrides, o)
	return nil
}

// markerFailStore makes every marker write fail, which aborts the first
// migration and therefore the whole pass.
type markerFailStore struct{ *docstore.Memory }

func (s markerFailStore) InsertMarker(context.Context, docstore.Marker) error {
	return errors.New("marker table unavailable")
}

func seedRecords() []encounter.Record {
	return []encounter.Record{
		{
			ID: "1", OwnerID: "clinic", EncounterType: "Patient Encounter",
			EncounterDate: "2026-03-01", PatientName: "Bill Harte",
			DateOfBirth: "1950-06-09", MRNSwedish: "S1", MRNProvidence: "P1",
		},
		{
			ID: "2", OwnerID: "clinic", EncounterType: encounter.TypePatient,
			EncounterDate: "2026-04-01", PatientName: "William Harte",
			DateOfBirth: "1950-06-09", MRNSwedish: "S1",
		},
		{
			ID: "3", OwnerID: "clinic", EncounterType: encounter.TypeStaff,
			EncounterDate: "2026-04-02",
		},
	}
}

func TestRunFullPass(t *testing.T) {
	store := docstore.NewMemory().Seed(seedRecords()...)
	svc := NewService(store, &fakeFixes{}, zerolog.Nop(), nil)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if report.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", report.RecordCount)
	}
	if report.PatientCount != 2 {
		t.Errorf("PatientCount = %d, want 2", report.PatientCount)
	}
	if report.Mapping.MappedPairs != 1 {
		t.Errorf("MappedPairs = %d, want 1 (S1-P1)", report.Mapping.MappedPairs)
	}
	if len(report.Enriched) != 3 {
		t.Fatalf("Enriched = %d records, want 3", len(report.Enriched))
	}

	// Record 2 has only the Swedish MRN; the pass must backfill Providence
	// from the inferred pair.
	var rec2 enrich.Enriched
	for _, e := range report.Enriched {
		if e.UniqueID == "clinic-2" {
			rec2 = e
		}
	}
	if v, ok := rec2.MRNProvidence.Value(); !ok || v != "P1" {
		t.Errorf("record 2 Providence MRN = %v, want backfilled P1", rec2.MRNProvidence)
	}

	if store.MarkerCount() != len(migration.All()) {
		t.Errorf("markers = %d, want %d", store.MarkerCount(), len(migration.All()))
	}

	// Migrations ran before the snapshot: the legacy type label must be
	// canonical in the enriched output.
	for _, e := range report.Enriched {
		if e.UniqueID == "clinic-1" && e.EncounterType != encounter.TypePatient {
			t.Errorf("record 1 type = %q, want normalized %q", e.EncounterType, encounter.TypePatient)
		}
	}
}

func TestRunAppliesFixOverrides(t *testing.T) {
	store := docstore.NewMemory().Seed(seedRecords()...)
	mrn := "S99"
	fixes := &fakeFixes{overrides: []enrich.Override{{UniqueID: "clinic-2", MRNSwedish: &mrn}}}
	svc := NewService(store, fixes, zerolog.Nop(), nil)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range report.Enriched {
		if e.UniqueID != "clinic-2" {
			continue
		}
		if v, ok := e.MRNSwedish.Value(); !ok || v != "S99" {
			t.Errorf("record 2 Swedish MRN = %v, want override S99", e.MRNSwedish)
		}
	}
}

func TestRunContinuesWhenFixesUnavailable(t *testing.T) {
	store := docstore.NewMemory().Seed(seedRecords()...)
	svc := NewService(store, &fakeFixes{err: errors.New("down")}, zerolog.Nop(), nil)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("pass must survive an override outage: %v", err)
	}
	if report.RecordCount != 3 {
		t.Errorf("RecordCount = %d, want 3", report.RecordCount)
	}
}

func TestRunBlockedByMigrationFailure(t *testing.T) {
	store := markerFailStore{docstore.NewMemory().Seed(seedRecords()...)}
	svc := NewService(store, &fakeFixes{}, zerolog.Nop(), nil)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("want error when a migration cannot complete")
	}
	if _, ok := svc.LastReport(); ok {
		t.Error("blocked pass must not publish a report")
	}
}

func TestRunEmitsOrderedProgress(t *testing.T) {
	store := docstore.NewMemory().Seed(seedRecords()...)
	var events []progress.Event
	sink := progress.Sink(func(e progress.Event) { events = append(events, e) })
	svc := NewService(store, &fakeFixes{}, zerolog.Nop(), sink)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	wantPhases := []string{PhaseMigrate, PhaseLoad, PhaseInfer, PhaseEnrich, PhaseCluster}
	seen := make(map[string]bool)
	var order []string
	for _, e := range events {
		if !seen[e.Phase] {
			seen[e.Phase] = true
			order = append(order, e.Phase)
		}
	}
	if len(order) != len(wantPhases) {
		t.Fatalf("phases = %v, want %v", order, wantPhases)
	}
	for i, p := range wantPhases {
		if order[i] != p {
			t.Fatalf("phases = %v, want %v", order, wantPhases)
		}
	}

	var enrichDone progress.Event
	for _, e := range events {
		if e.Phase == PhaseEnrich {
			enrichDone = e
		}
	}
	if enrichDone.Current != 3 || enrichDone.Total != 3 {
		t.Errorf("final enrich event = %+v, want 3/3", enrichDone)
	}
}

func TestLastReportCachesNewestPass(t *testing.T) {
	store := docstore.NewMemory().Seed(seedRecords()...)
	svc := NewService(store, &fakeFixes{}, zerolog.Nop(), nil)

	if _, ok := svc.LastReport(); ok {
		t.Fatal("no report before the first pass")
	}
	first, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(context.Background(), encounter.Record{
		ID: "4", OwnerID: "clinic", EncounterType: encounter.TypePatient, EncounterDate: "2026-05-01",
	}); err != nil {
		t.Fatal(err)
	}
	second, err := svc.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	got, ok := svc.LastReport()
	if !ok || got != second || got == first {
		t.Error("LastReport must return the newest pass")
	}
	if second.RecordCount != first.RecordCount+1 {
		t.Errorf("second pass RecordCount = %d, want %d", second.RecordCount, first.RecordCount+1)
	}
}
