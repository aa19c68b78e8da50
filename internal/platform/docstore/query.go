package docstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carelog/carelog/internal/domain/encounter"
)

type missingSentinel struct{}

// Missing matches documents where the field is absent or empty. Use it as a
// query value: Query{"owner_id": docstore.Missing}.
var Missing = missingSentinel{}

// Query selects documents by equality on serialized field values, keyed by
// the JSON field name. Dotted keys descend into nested objects
// ("flags.counseling"). An empty query selects every record.
type Query map[string]any

// Matches evaluates the query against one record, using the record's JSON
// representation so in-memory matching agrees with the JSONB-backed store.
func (q Query) Matches(rec encounter.Record) bool {
	if len(q) == 0 {
		return true
	}
	doc := toDoc(rec)
	for path, want := range q {
		got, found := lookup(doc, path)
		if _, missing := want.(missingSentinel); missing {
			if found && got != nil && got != "" {
				return false
			}
			continue
		}
		if !found || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func toDoc(rec encounter.Record) map[string]any {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc
}

func lookup(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, p := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
