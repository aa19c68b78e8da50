package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelog/carelog/internal/domain/dupes"
	"github.com/carelog/carelog/internal/domain/encounter"
	"github.com/carelog/carelog/internal/domain/enrich"
	"github.com/carelog/carelog/internal/domain/inference"
	"github.com/carelog/carelog/internal/domain/migration"
	"github.com/carelog/carelog/internal/platform/docstore"
	"github.com/carelog/carelog/internal/platform/progress"
)

// Phase names reported through the progress sink.
const (
	PhaseMigrate = "migrate"
	PhaseLoad    = "load"
	PhaseInfer   = "infer"
	PhaseEnrich  = "enrich"
	PhaseCluster = "cluster"
)

// Report is the output of one reconciliation pass: plain data, safe to send
// across a process boundary.
type Report struct {
	RanAt        time.Time         `json:"ran_at"`
	RecordCount  int               `json:"record_count"`
	PatientCount int               `json:"patient_count"`
	Mapping      inference.Stats   `json:"mapping"`
	Enriched     []enrich.Enriched `json:"enriched"`
	Groups       []dupes.Group     `json:"groups"`
}

// Summary is the report without the per-record payload.
type Summary struct {
	RanAt        time.Time       `json:"ran_at"`
	RecordCount  int             `json:"record_count"`
	PatientCount int             `json:"patient_count"`
	Mapping      inference.Stats `json:"mapping"`
	GroupCount   int             `json:"group_count"`
}

// Summary projects the report's counts.
func (r *Report) Summary() Summary {
	return Summary{
		RanAt:        r.RanAt,
		RecordCount:  r.RecordCount,
		PatientCount: r.PatientCount,
		Mapping:      r.Mapping,
		GroupCount:   len(r.Groups),
	}
}

// Service orchestrates one reconciliation pass: migrate the document
// collection to the current schema, snapshot it, infer the identifier
// mapping, enrich every record, and cluster the patient records into review
// groups. The pure cores stay synchronous and I/O-free; the service owns
// the store calls, the snapshot, and progress reporting.
type Service struct {
	store docstore.Store
	fixes enrich.OverrideRepository
	log   zerolog.Logger
	sink  progress.Sink
	now   func() time.Time

	mu   sync.RWMutex
	last *Report
}

// NewService wires a reconciliation service. sink may be nil.
func NewService(store docstore.Store, fixes enrich.OverrideRepository, logger zerolog.Logger, sink progress.Sink) *Service {
	return &Service{
		store: store,
		fixes: fixes,
		log:   logger,
		sink:  sink,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Run executes a full reconciliation pass. A migration failure aborts the
// pass and is returned as a blocking error; everything downstream of
// migrations degrades gracefully instead of failing.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	started := s.now()

	s.sink.Emit(PhaseMigrate, 0, 1)
	runner := migration.NewRunner(s.store, s.log)
	if err := runner.Apply(ctx, migration.All()); err != nil {
		return nil, fmt.Errorf("reconciliation blocked: %w", err)
	}
	s.sink.Emit(PhaseMigrate, 1, 1)

	// Point-in-time snapshot: the cores assume a private, consistent copy
	// for the duration of the pass.
	s.sink.Emit(PhaseLoad, 0, 1)
	records, err := s.store.Find(ctx, docstore.Query{})
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	s.sink.Emit(PhaseLoad, 1, 1)

	var patients []encounter.Record
	for _, r := range records {
		if r.IsPatient() {
			patients = append(patients, r)
		}
	}

	s.sink.Emit(PhaseInfer, 0, 1)
	mapping := inference.Infer(patients)
	s.sink.Emit(PhaseInfer, 1, 1)

	overrides, err := s.fixes.List(ctx)
	if err != nil {
		// Fix overrides are corrections, not structure: reconcile without
		// them rather than failing the pass.
		s.log.Warn().Err(err).Msg("fix overrides unavailable, continuing without")
		overrides = nil
	}

	transformer := enrich.NewTransformer(started, mapping, enrich.NewLookup(overrides))
	enriched := make([]enrich.Enriched, 0, len(records))
	var enrichedPatients []enrich.Enriched
	for i, r := range records {
		e := transformer.Transform(r)
		enriched = append(enriched, e)
		if r.IsPatient() {
			enrichedPatients = append(enrichedPatients, e)
		}
		s.sink.Emit(PhaseEnrich, i+1, len(records))
	}

	s.sink.Emit(PhaseCluster, 0, 1)
	groups := dupes.Cluster(enrichedPatients)
	s.sink.Emit(PhaseCluster, 1, 1)

	report := &Report{
		RanAt:        started,
		RecordCount:  len(records),
		PatientCount: len(patients),
		Mapping:      mapping.Stats(),
		Enriched:     enriched,
		Groups:       groups,
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()

	s.log.Info().
		Int("records", report.RecordCount).
		Int("patients", report.PatientCount).
		Int("groups", len(groups)).
		Int("mapped_pairs", report.Mapping.MappedPairs).
		Int("conflicts", report.Mapping.Conflicts).
		Dur("took", s.now().Sub(started)).
		Msg("reconciliation pass complete")

	return report, nil
}

// LastReport returns the most recent completed pass, if any.
func (s *Service) LastReport() (*Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last, s.last != nil
}
