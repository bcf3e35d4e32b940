package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meditrack/meditrack/internal/platform/store"
)

const collection = "bills"

// StoreRepo persists bills in the shared document store.
type StoreRepo struct {
	docs store.Store
}

func NewStoreRepo(docs store.Store) *StoreRepo {
	return &StoreRepo{docs: docs}
}

func (r *StoreRepo) Create(ctx context.Context, b *Bill) error {
	doc, err := toDoc(b)
	if err != nil {
		return err
	}
	_, err = r.docs.Insert(ctx, collection, doc)
	return err
}

func (r *StoreRepo) GetByBillID(ctx context.Context, billID string) (*Bill, error) {
	doc, err := r.docs.FindOne(ctx, collection, store.Doc{"bill_id": billID})
	if err != nil {
		return nil, err
	}
	return fromDoc(doc)
}

func (r *StoreRepo) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Bill, int, error) {
	filter := store.Doc{"patient_id": patientID}
	docs, err := r.docs.FindMany(ctx, collection, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.docs.Count(ctx, collection, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*Bill, 0, len(docs))
	for _, doc := range docs {
		b, err := fromDoc(doc)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	return out, total, nil
}

func toDoc(b *Bill) (store.Doc, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode bill: %w", err)
	}
	doc := store.Doc{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode bill: %w", err)
	}
	return doc, nil
}

func fromDoc(doc store.Doc) (*Bill, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode bill: %w", err)
	}
	var b Bill
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode bill: %w", err)
	}
	return &b, nil
}
