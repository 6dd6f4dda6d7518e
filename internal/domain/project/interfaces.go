package project

import "context"

// Store persists the whole collection. Load on a missing collection returns
// an empty one. Load may return valid records together with an error when
// some stored records could not be parsed.
type Store interface {
	Load(ctx context.Context) (Collection, error)
	Save(ctx context.Context, projects Collection) error
}
