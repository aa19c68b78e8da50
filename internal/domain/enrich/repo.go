package enrich

import "context"

// OverrideRepository stores accepted fix overrides. List returns them in
// acceptance order, oldest first, so NewLookup's last-wins rule resolves to
// the most recently accepted fix.
type OverrideRepository interface {
	List(ctx context.Context) ([]Override, error)
	Add(ctx context.Context, o Override) error
}
