package dupes

import (
	"sort"
	"strings"

	"github.com/carelog/carelog/internal/domain/enrich"
)

// RuleType tags which review rule surfaced a group.
type RuleType string

const (
	// RuleSamePatientDifferentMRNs groups records that look like one person
	// carrying more than one identifier.
	RuleSamePatientDifferentMRNs RuleType = "same-patient-different-mrns"
	// RuleSharedSwedishMRN groups records sharing a Swedish MRN that look
	// like different people.
	RuleSharedSwedishMRN RuleType = "shared-swedish-mrn"
	// RuleSharedProvidenceMRN groups records sharing a Providence MRN that
	// look like different people.
	RuleSharedProvidenceMRN RuleType = "shared-providence-mrn"
)

// Group is one candidate set of records needing human review. Canonical
// values are the most frequent non-excluded value of each field among the
// members, the "likely correct" value to diff the others against. Groups
// are recomputed fresh on every pass and never persisted here.
type Group struct {
	Type                   RuleType          `json:"type"`
	Members                []enrich.Enriched `json:"members"`
	CanonicalDateOfBirth   enrich.Field      `json:"canonical_date_of_birth"`
	CanonicalMRNSwedish    enrich.Field      `json:"canonical_mrn_swedish"`
	CanonicalMRNProvidence enrich.Field      `json:"canonical_mrn_providence"`
}

// ID identifies a group by its membership. Member unique ids are sorted
// before joining, so the same membership always produces the same id no
// matter which rule or iteration order discovered it.
func (g Group) ID() string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.UniqueID
	}
	sort.Strings(ids)
	return strings.Join(ids, "|")
}

// Cluster partitions enriched patient records into candidate duplicate and
// conflict groups under the three review rules. Clustering never fails;
// partitions that yield no group of size > 1 are simply dropped.
func Cluster(records []enrich.Enriched) []Group {
	var groups []Group
	groups = append(groups, samePatientGroups(records)...)
	groups = append(groups, sharedMRNGroups(records, RuleSharedSwedishMRN)...)
	groups = append(groups, sharedMRNGroups(records, RuleSharedProvidenceMRN)...)

	seen := make(map[string]bool, len(groups))
	deduped := groups[:0]
	for _, g := range groups {
		id := g.ID()
		if seen[id] {
			continue
		}
		seen[id] = true
		deduped = append(deduped, g)
	}
	return deduped
}

// samePatientGroups implements the "same patient, different identifiers"
// rule: partition by formatted date of birth, cluster by name similarity,
// and keep only clusters whose members collectively show more than one
// identity on either MRN axis.
func samePatientGroups(records []enrich.Enriched) []Group {
	var groups []Group
	for _, part := range partition(records, func(e enrich.Enriched) (enrich.Field, bool) {
		return e.FormattedDateOfBirth, true
	}) {
		for _, members := range greedyClusters(part, func(seed, other enrich.Enriched) bool {
			return SimilarNames(seed.PatientName, other.PatientName)
		}) {
			// A record whose identifier pair duplicates another member's
			// adds no identifier evidence and is not flagged.
			members = uniqueByIdentifierPair(members)
			if len(members) < 2 || !multipleIdentifierEvidence(members) {
				continue
			}
			groups = append(groups, newGroup(RuleSamePatientDifferentMRNs, members))
		}
	}
	return groups
}

// sharedMRNGroups implements the "same identifier, different patients"
// rules: partition by one MRN axis and cluster records whose birth dates
// differ or whose names are dissimilar. A partition whose opposite axis
// carries more than one distinct non-excluded value is skipped: that shape
// is the legitimate multi-identifier merge the same-patient rule already
// surfaces.
func sharedMRNGroups(records []enrich.Enriched, rule RuleType) []Group {
	axis := func(e enrich.Enriched) (enrich.Field, bool) {
		f := e.MRNSwedish
		if rule == RuleSharedProvidenceMRN {
			f = e.MRNProvidence
		}
		return f, f.IsPresent()
	}
	opposite := func(e enrich.Enriched) enrich.Field {
		if rule == RuleSharedProvidenceMRN {
			return e.MRNSwedish
		}
		return e.MRNProvidence
	}

	var groups []Group
	for _, part := range partition(records, axis) {
		if len(distinctPresent(part, opposite)) > 1 {
			continue
		}
		for _, members := range greedyClusters(part, func(seed, other enrich.Enriched) bool {
			return seed.FormattedDateOfBirth != other.FormattedDateOfBirth ||
				!SimilarNames(seed.PatientName, other.PatientName)
		}) {
			groups = append(groups, newGroup(rule, members))
		}
	}
	return groups
}

// partition splits records by a key field, in first-seen key order. Records
// for which include is false are left out entirely.
func partition(records []enrich.Enriched, key func(enrich.Enriched) (enrich.Field, bool)) [][]enrich.Enriched {
	byKey := map[enrich.Field]int{}
	var parts [][]enrich.Enriched
	for _, r := range records {
		k, ok := key(r)
		if !ok {
			continue
		}
		i, seen := byKey[k]
		if !seen {
			i = len(parts)
			byKey[k] = i
			parts = append(parts, nil)
		}
		parts[i] = append(parts[i], r)
	}
	return parts
}

// greedyClusters clusters a partition against fixed seeds: the first
// remaining record seeds a cluster, every other remaining record matching
// the predicate against that seed joins it, and the process repeats on what
// is left. A record matching a non-seed member but not the seed is not
// joined; this is deliberately single-link-from-seed, not transitive
// closure. Clusters of size 1 are dropped.
func greedyClusters(part []enrich.Enriched, match func(seed, other enrich.Enriched) bool) [][]enrich.Enriched {
	remaining := make([]enrich.Enriched, len(part))
	copy(remaining, part)

	var clusters [][]enrich.Enriched
	for len(remaining) > 0 {
		seed := remaining[0]
		cluster := []enrich.Enriched{seed}
		rest := remaining[:0]
		for _, r := range remaining[1:] {
			if match(seed, r) {
				cluster = append(cluster, r)
			} else {
				rest = append(rest, r)
			}
		}
		remaining = rest
		if len(cluster) > 1 {
			clusters = append(clusters, cluster)
		}
	}
	return clusters
}

// multipleIdentifierEvidence reports whether a cluster's members show more
// than one identity on the MRN axes: several distinct values on either
// axis, or exactly one value on each axis that never appear together on the
// same record.
func multipleIdentifierEvidence(members []enrich.Enriched) bool {
	a := distinctPresent(members, func(e enrich.Enriched) enrich.Field { return e.MRNSwedish })
	b := distinctPresent(members, func(e enrich.Enriched) enrich.Field { return e.MRNProvidence })
	if len(a) > 1 || len(b) > 1 {
		return true
	}
	if len(a) == 1 && len(b) == 1 {
		for _, m := range members {
			if m.MRNSwedish.IsPresent() && m.MRNProvidence.IsPresent() {
				return false
			}
		}
		return true
	}
	return false
}

// uniqueByIdentifierPair keeps the first member seen for each distinct
// (Swedish, Providence) identifier combination.
func uniqueByIdentifierPair(members []enrich.Enriched) []enrich.Enriched {
	type pair struct{ a, b enrich.Field }
	seen := map[pair]bool{}
	var unique []enrich.Enriched
	for _, m := range members {
		p := pair{m.MRNSwedish, m.MRNProvidence}
		if seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, m)
	}
	return unique
}

func distinctPresent(members []enrich.Enriched, field func(enrich.Enriched) enrich.Field) []string {
	seen := map[string]bool{}
	var values []string
	for _, m := range members {
		if v, ok := field(m).Value(); ok && !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	return values
}

func newGroup(rule RuleType, members []enrich.Enriched) Group {
	ordered := make([]enrich.Enriched, len(members))
	copy(ordered, members)
	sort.SliceStable(ordered, func(i, j int) bool {
		di, dj := ordered[i].EncounterDate, ordered[j].EncounterDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.Before(*dj)
		}
		return ordered[i].UniqueID < ordered[j].UniqueID
	})

	return Group{
		Type:                   rule,
		Members:                ordered,
		CanonicalDateOfBirth:   canonical(ordered, func(e enrich.Enriched) enrich.Field { return e.FormattedDateOfBirth }),
		CanonicalMRNSwedish:    canonical(ordered, func(e enrich.Enriched) enrich.Field { return e.MRNSwedish }),
		CanonicalMRNProvidence: canonical(ordered, func(e enrich.Enriched) enrich.Field { return e.MRNProvidence }),
	}
}

// canonical picks the most frequent non-excluded value of a field among the
// members; ties go to the value seen first in member order.
func canonical(members []enrich.Enriched, field func(enrich.Enriched) enrich.Field) enrich.Field {
	counts := map[string]int{}
	var order []string
	for _, m := range members {
		v, ok := field(m).Value()
		if !ok {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best := enrich.Excluded
	bestCount := 0
	for _, v := range order {
		if counts[v] > bestCount {
			best = enrich.Present(v)
			bestCount = counts[v]
		}
	}
	return best
}
