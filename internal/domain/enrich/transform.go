package enrich

import (
	"strconv"
	"strings"
	"time"

	"github.com/carelog/carelog/internal/domain/encounter"
	"github.com/carelog/carelog/internal/domain/inference"
)

// Age bucket labels used in reports.
const (
	Bucket39OrUnder = "≤39 years"
	Bucket40To64    = "40 to 64"
	Bucket65OrOver  = "≥65 years"
)

// Enriched is the report-ready projection of one encounter record. It is
// plain serializable data with no reference back to the document store.
type Enriched struct {
	UniqueID      string         `json:"unique_id"`
	EncounterType encounter.Type `json:"encounter_type"`
	EncounterDate *time.Time     `json:"encounter_date,omitempty"`

	PatientName          string `json:"patient_name,omitempty"`
	FormattedDateOfBirth Field  `json:"formatted_date_of_birth"`
	AgeBucket            string `json:"age_bucket,omitempty"`

	MRNSwedish    Field `json:"mrn_swedish"`
	MRNProvidence Field `json:"mrn_providence"`

	GAD7Severity string `json:"gad7_severity,omitempty"`
	PHQ9Severity string `json:"phq9_severity,omitempty"`
	MoCASeverity string `json:"moca_severity,omitempty"`

	Interventions     []string `json:"interventions"`
	InterventionCount Count    `json:"intervention_count"`

	NumberOfTasks        int     `json:"number_of_tasks"`
	TasksExcludingCharts int     `json:"tasks_excluding_charts"`
	TimeSpentHours       float64 `json:"time_spent_hours"`

	DoctorPrimary Field `json:"doctor_primary"`
}

// Transformer derives report fields from raw records using the inferred
// identifier mapping and manual fix overrides. Transform is a pure function
// of the record and the transformer's inputs; it performs no I/O.
type Transformer struct {
	ref     time.Time
	mapping inference.Mapping
	fixes   Lookup
}

// NewTransformer builds a transformer. ref is the reference date used to
// pivot two-digit years and as the age fallback when the encounter date does
// not parse.
func NewTransformer(ref time.Time, mapping inference.Mapping, fixes Lookup) *Transformer {
	if fixes == nil {
		fixes = Lookup{}
	}
	return &Transformer{ref: ref, mapping: mapping, fixes: fixes}
}

// Transform enriches a single record. Parse failures are not errors: an
// unparseable date or score simply yields no derived field.
func (t *Transformer) Transform(r encounter.Record) Enriched {
	e := Enriched{
		UniqueID:      r.UniqueID(),
		EncounterType: r.EncounterType,
		PatientName:   r.PatientName,
	}

	var encDate time.Time
	if d, ok := encounter.ParseDate(r.EncounterDate); ok {
		encDate = d
		e.EncounterDate = &d
	}

	dob := r.DateOfBirth
	mrnA := strings.TrimSpace(r.MRNSwedish)
	mrnB := strings.TrimSpace(r.MRNProvidence)
	if fix, ok := t.fixes[e.UniqueID]; ok {
		if fix.DateOfBirth != nil {
			dob = *fix.DateOfBirth
		}
		if fix.MRNSwedish != nil {
			mrnA = strings.TrimSpace(*fix.MRNSwedish)
		}
		if fix.MRNProvidence != nil {
			mrnB = strings.TrimSpace(*fix.MRNProvidence)
		}
	}

	e.FormattedDateOfBirth = Excluded
	if r.IsPatient() {
		if born, ok := encounter.ParseFlexibleDate(dob, t.ref); ok {
			e.FormattedDateOfBirth = Present(born.Format(encounter.DateLayout))
			at := t.ref
			if !encDate.IsZero() {
				at = encDate
			}
			e.AgeBucket = ageBucket(encounter.YearsBetween(born, at))
		}
	}

	e.MRNSwedish, e.MRNProvidence = t.resolveMRNs(mrnA, mrnB)

	if r.Flags.GAD7Administered {
		if label, ok := GAD7Label(r.Scores.GAD7); ok {
			e.GAD7Severity = label
		}
	}
	if r.Flags.PHQ9Administered {
		if label, ok := PHQ9Label(r.Scores.PHQ9); ok {
			e.PHQ9Severity = label
		}
	}
	if r.Flags.MoCAAdministered {
		if label, ok := MoCALabel(r.Scores.MoCA); ok {
			e.MoCASeverity = label
		}
	}

	e.Interventions = []string{}
	e.InterventionCount = ExcludedCount
	if r.EncounterType == encounter.TypePatient || r.EncounterType == encounter.TypeCommunity {
		for _, iv := range encounter.Interventions {
			if iv.Set(r.Flags) {
				e.Interventions = append(e.Interventions, iv.Display)
			}
		}
		e.InterventionCount = CountOf(len(e.Interventions))
	}

	e.NumberOfTasks, _ = strconv.Atoi(strings.TrimSpace(r.NumberOfTasks))
	e.TasksExcludingCharts = e.NumberOfTasks
	if r.Flags.DocumentationOnly {
		e.TasksExcludingCharts--
	}
	if e.TasksExcludingCharts < 0 {
		e.TasksExcludingCharts = 0
	}

	if minutes, err := strconv.Atoi(strings.TrimSpace(r.TimeSpentMinutes)); err == nil {
		e.TimeSpentHours = float64(minutes) / 60
	}

	e.DoctorPrimary = Excluded
	if len(r.Providers) > 0 {
		e.DoctorPrimary = Present(r.Providers[0])
	}

	return e
}

// resolveMRNs applies single-sided backfill: when exactly one namespace has
// a value, the other is filled from the mapping, but only through a Mapped
// entry. Conflicted and unmapped entries never supply a value. Anything
// still missing becomes the excluded placeholder.
func (t *Transformer) resolveMRNs(mrnA, mrnB string) (Field, Field) {
	if mrnA != "" && mrnB == "" {
		if b, ok := t.mapping.ProvidenceFor(mrnA); ok {
			mrnB = b
		}
	} else if mrnB != "" && mrnA == "" {
		if a, ok := t.mapping.SwedishFor(mrnB); ok {
			mrnA = a
		}
	}

	a, b := Excluded, Excluded
	if mrnA != "" {
		a = Present(mrnA)
	}
	if mrnB != "" {
		b = Present(mrnB)
	}
	return a, b
}

func ageBucket(age int) string {
	switch {
	case age <= 39:
		return Bucket39OrUnder
	case age <= 64:
		return Bucket40To64
	default:
		return Bucket65OrOver
	}
}
