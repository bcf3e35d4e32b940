package inventory

import "context"

// Repository is the persistence boundary for inventory records.
type Repository interface {
	// Create inserts a new record. Inserting a name that already exists
	// reports a conflict.
	Create(ctx context.Context, r *Record) error
	GetByName(ctx context.Context, name string) (*Record, error)
	// UpdateCAS replaces the counted fields of the record named r.Name,
	// but only if its stored version still equals oldVersion. It returns
	// false when the record changed underneath the caller.
	UpdateCAS(ctx context.Context, oldVersion int, r *Record) (bool, error)
	List(ctx context.Context, limit, offset int) ([]*Record, int, error)
}
