package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mem is an in-memory Store with the same observable semantics as PG:
// documents are normalized through a JSON round trip so values read back
// with JSON types (float64 numbers, string keys), and filters match by
// containment.
type Mem struct {
	mu     sync.Mutex
	seq    int64
	docs   map[string][]*memDoc // collection → entries
	unique map[string]string    // collection → field with unique values
	down   bool
}

type memDoc struct {
	id        string
	body      Doc
	createdAt time.Time
	updatedAt time.Time
	seq       int64
}

// MemOption configures a Mem store.
type MemOption func(*Mem)

// WithUnique enforces uniqueness of a document field within a collection,
// mirroring the partial unique indexes of the Postgres schema.
func WithUnique(collection, field string) MemOption {
	return func(m *Mem) { m.unique[collection] = field }
}

func NewMem(opts ...MemOption) *Mem {
	m := &Mem{
		docs:   make(map[string][]*memDoc),
		unique: make(map[string]string),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetAvailable toggles simulated store availability. While unavailable
// every operation returns ErrUnavailable.
func (m *Mem) SetAvailable(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = !ok
}

func (m *Mem) Insert(_ context.Context, collection string, doc Doc) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return "", ErrUnavailable
	}
	body, err := normalize(doc)
	if err != nil {
		return "", err
	}
	if field, ok := m.unique[collection]; ok {
		if v, present := body[field]; present {
			for _, d := range m.docs[collection] {
				if reflect.DeepEqual(d.body[field], v) {
					return "", fmt.Errorf("%w: %s.%s", ErrConflict, collection, field)
				}
			}
		}
	}
	m.seq++
	entry := &memDoc{
		id:        uuid.New().String(),
		body:      body,
		createdAt: time.Now().UTC(),
		updatedAt: time.Now().UTC(),
		seq:       m.seq,
	}
	m.docs[collection] = append(m.docs[collection], entry)
	return entry.id, nil
}

func (m *Mem) FindOne(ctx context.Context, collection string, filter Doc) (Doc, error) {
	docs, err := m.FindMany(ctx, collection, filter, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (m *Mem) FindMany(_ context.Context, collection string, filter Doc, limit, offset int) ([]Doc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return nil, ErrUnavailable
	}
	want, err := normalize(filter)
	if err != nil {
		return nil, err
	}
	matched := m.match(collection, want)
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]Doc, 0, len(matched))
	for _, d := range matched {
		out = append(out, d.export())
	}
	return out, nil
}

func (m *Mem) Count(_ context.Context, collection string, filter Doc) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return 0, ErrUnavailable
	}
	want, err := normalize(filter)
	if err != nil {
		return 0, err
	}
	return len(m.match(collection, want)), nil
}

func (m *Mem) UpdateOne(_ context.Context, collection string, filter, set Doc) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return 0, ErrUnavailable
	}
	want, err := normalize(filter)
	if err != nil {
		return 0, err
	}
	merge, err := normalize(set)
	if err != nil {
		return 0, err
	}
	matched := m.match(collection, want)
	if len(matched) == 0 {
		return 0, nil
	}
	target := matched[0]
	for k, v := range merge {
		target.body[k] = v
	}
	target.updatedAt = time.Now().UTC()
	return 1, nil
}

func (m *Mem) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.down {
		return ErrUnavailable
	}
	return nil
}

// match returns matching entries newest first. Callers hold m.mu.
func (m *Mem) match(collection string, want Doc) []*memDoc {
	var out []*memDoc
	for _, d := range m.docs[collection] {
		if contains(d.body, want) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq > out[j].seq })
	return out
}

func (d *memDoc) export() Doc {
	out := make(Doc, len(d.body)+3)
	for k, v := range d.body {
		out[k] = v
	}
	out[KeyID] = d.id
	out[KeyCreatedAt] = d.createdAt
	out[KeyUpdatedAt] = d.updatedAt
	return out
}

func contains(doc, filter Doc) bool {
	for k, v := range filter {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}

// normalize strips reserved keys and round-trips values through JSON so a
// Mem store returns the same shapes a JSONB read would.
func normalize(doc Doc) (Doc, error) {
	body, err := marshalDoc(doc)
	if err != nil {
		return nil, err
	}
	out := Doc{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("normalize document: %w", err)
	}
	return out, nil
}
