package encounter

import (
	"testing"
	"time"
)

var ref = time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

func TestParseFlexibleDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1984-06-09", "1984-06-09", true},
		{"6/9/1984", "1984-06-09", true},
		{"06/09/1984", "1984-06-09", true},
		{"6-9-1984", "1984-06-09", true},
		{" 6/9/1984 ", "1984-06-09", true},
		// Two-digit years pivot on ref's suffix (26): <=26 is 20xx.
		{"6/9/84", "1984-06-09", true},
		{"6/9/26", "2026-06-09", true},
		{"6/9/27", "1927-06-09", true},
		{"6-9-00", "2000-06-09", true},
		{"2/30/1984", "", false},
		{"13/1/1984", "", false},
		{"6/9/198", "", false},
		{"not a date", "", false},
		{"6/1984", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseFlexibleDate(tt.in, ref)
		if ok != tt.ok {
			t.Errorf("ParseFlexibleDate(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got.Format(DateLayout) != tt.want {
			t.Errorf("ParseFlexibleDate(%q) = %s, want %s", tt.in, got.Format(DateLayout), tt.want)
		}
	}
}

func TestParseDateRejectsNonStorageFormats(t *testing.T) {
	if _, ok := ParseDate("6/9/1984"); ok {
		t.Error("ParseDate accepted a slash date")
	}
	if _, ok := ParseDate("2024-02-07"); !ok {
		t.Error("ParseDate rejected a storage-format date")
	}
}

func TestYearsBetween(t *testing.T) {
	dob := time.Date(1986, 8, 28, 0, 0, 0, 0, time.UTC)
	if got := YearsBetween(dob, ref); got != 40 {
		t.Errorf("age on anniversary = %d, want 40", got)
	}
	if got := YearsBetween(dob, ref.AddDate(0, 0, -1)); got != 39 {
		t.Errorf("age the day before = %d, want 39", got)
	}
}

func TestUniqueID(t *testing.T) {
	r := Record{ID: "rec42", OwnerID: "clinic7"}
	if got := r.UniqueID(); got != "clinic7-rec42" {
		t.Errorf("UniqueID = %q, want %q", got, "clinic7-rec42")
	}
}
