package inventory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meditrack/meditrack/internal/platform/store"
)

const collection = "inventory"

// StoreRepo persists inventory records in the shared document store.
type StoreRepo struct {
	docs store.Store
}

func NewStoreRepo(docs store.Store) *StoreRepo {
	return &StoreRepo{docs: docs}
}

func (r *StoreRepo) Create(ctx context.Context, rec *Record) error {
	doc, err := toDoc(rec)
	if err != nil {
		return err
	}
	_, err = r.docs.Insert(ctx, collection, doc)
	return err
}

func (r *StoreRepo) GetByName(ctx context.Context, name string) (*Record, error) {
	doc, err := r.docs.FindOne(ctx, collection, store.Doc{"name": name})
	if err != nil {
		return nil, err
	}
	return fromDoc(doc)
}

func (r *StoreRepo) UpdateCAS(ctx context.Context, oldVersion int, rec *Record) (bool, error) {
	filter := store.Doc{"name": rec.Name, "version": oldVersion}
	set := store.Doc{
		"qty":       rec.Qty,
		"avg_price": rec.AvgPrice,
		"version":   rec.Version,
	}
	matched, err := r.docs.UpdateOne(ctx, collection, filter, set)
	if err != nil {
		return false, err
	}
	return matched == 1, nil
}

func (r *StoreRepo) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	docs, err := r.docs.FindMany(ctx, collection, nil, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := r.docs.Count(ctx, collection, nil)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := fromDoc(doc)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, nil
}

func toDoc(rec *Record) (store.Doc, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode inventory record: %w", err)
	}
	doc := store.Doc{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("encode inventory record: %w", err)
	}
	return doc, nil
}

func fromDoc(doc store.Doc) (*Record, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("decode inventory record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode inventory record: %w", err)
	}
	return &rec, nil
}
