package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meditrack/meditrack/internal/platform/store"
)

const collection = "patients"

// StoreRepo persists patients in the shared document store. Typed records
// cross into schemaless documents only here.
type StoreRepo struct {
	docs store.Store
}

func NewStoreRepo(docs store.Store) *StoreRepo {
	return &StoreRepo{docs: docs}
}

func (r *StoreRepo) Create(ctx context.Context, p *Patient) error {
	doc, err := toDoc(p)
	if err != nil {
		return err
	}
	if _, err := r.docs.Insert(ctx, collection, doc); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, p.PatientID)
		}
		return err
	}
	return nil
}

func (r *StoreRepo) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	doc, err := r.docs.FindOne(ctx, collection, store.Doc{"patient_id": patientID})
	if err != nil {
		return nil, err
	}
	return fromDoc(doc)
}

func (r *StoreRepo) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	docs, err := r.docs.FindMany(ctx, collection, nil, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.docs.Count(ctx, collection, nil)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*Patient, 0, len(docs))
	for _, doc := range docs {
		p, err := fromDoc(doc)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, nil
}

func toDoc(p *Patient) (store.Doc, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode patient: %w", err)
	}
	doc := store.Doc{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode patient: %w", err)
	}
	return doc, nil
}

func fromDoc(doc store.Doc) (*Patient, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode patient: %w", err)
	}
	var p Patient
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode patient: %w", err)
	}
	return &p, nil
}
