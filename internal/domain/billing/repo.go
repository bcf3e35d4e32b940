package billing

import "context"

// Repository is the persistence boundary for bills. Bills are written once
// with their items embedded and never updated.
type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByBillID(ctx context.Context, billID string) (*Bill, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Bill, int, error)
}
