package encounter

import "fmt"

// Type classifies who an encounter was with.
type Type string

const (
	TypePatient   Type = "patient"
	TypeCommunity Type = "community"
	TypeStaff     Type = "staff"
	TypeOther     Type = "other"
)

// Record is one encounter document as stored in the document collection.
// Patient-only fields (name, date of birth, MRNs, flags, scores) are left
// zero-valued on non-patient records. Records are immutable per version:
// only migrations and user edits produce new versions, and this engine never
// deletes them.
type Record struct {
	ID            string `json:"id"`
	OwnerID       string `json:"owner_id"`
	EncounterType Type   `json:"encounter_type"`
	EncounterDate string `json:"encounter_date"` // YYYY-MM-DD

	PatientName   string `json:"patient_name,omitempty"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	MRNSwedish    string `json:"mrn_swedish,omitempty"`    // identifier namespace A
	MRNProvidence string `json:"mrn_providence,omitempty"` // identifier namespace B

	Flags  Flags  `json:"flags"`
	Scores Scores `json:"scores"`

	NumberOfTasks    string   `json:"number_of_tasks,omitempty"`
	TimeSpentMinutes string   `json:"time_spent_minutes,omitempty"`
	Providers        []string `json:"providers,omitempty"`
}

// Flags holds the boolean intervention and assessment markers entered on the
// encounter form.
type Flags struct {
	GAD7Administered bool `json:"gad7_administered,omitempty"`
	PHQ9Administered bool `json:"phq9_administered,omitempty"`
	MoCAAdministered bool `json:"moca_administered,omitempty"`

	Counseling       bool `json:"counseling,omitempty"`
	MedicationReview bool `json:"medication_review,omitempty"`
	CareCoordination bool `json:"care_coordination,omitempty"`
	SafetyPlanning   bool `json:"safety_planning,omitempty"`
	Referral         bool `json:"referral,omitempty"`
	HealthEducation  bool `json:"health_education,omitempty"`

	// DocumentationOnly marks that one of the recorded tasks was pure
	// charting rather than a clinical task.
	DocumentationOnly bool `json:"documentation_only,omitempty"`
}

// Scores holds raw assessment scores as entered: a non-negative integer,
// "n/a" (patient declined), or empty.
type Scores struct {
	GAD7 string `json:"gad7,omitempty"`
	PHQ9 string `json:"phq9,omitempty"`
	MoCA string `json:"moca,omitempty"`
}

// Intervention pairs a flag accessor with its display name, in the canonical
// order interventions are reported in.
type Intervention struct {
	Display string
	Set     func(Flags) bool
}

// Interventions is the canonical intervention field order. Enrichment walks
// this slice so every report lists interventions identically.
var Interventions = []Intervention{
	{"Counseling", func(f Flags) bool { return f.Counseling }},
	{"Medication review", func(f Flags) bool { return f.MedicationReview }},
	{"Care coordination", func(f Flags) bool { return f.CareCoordination }},
	{"Safety planning", func(f Flags) bool { return f.SafetyPlanning }},
	{"Referral", func(f Flags) bool { return f.Referral }},
	{"Health education", func(f Flags) bool { return f.HealthEducation }},
}

// UniqueID is the stable composite key for a record across source files.
func (r Record) UniqueID() string {
	return fmt.Sprintf("%s-%s", r.OwnerID, r.ID)
}

// IsPatient reports whether patient-only derivations apply to this record.
func (r Record) IsPatient() bool { return r.EncounterType == TypePatient }
