package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PG is the production Store backed by a single Postgres table of JSONB
// documents (see migrations/0001_documents.sql).
type PG struct {
	pool *pgxpool.Pool
}

// NewPool opens a pgx connection pool and verifies connectivity.
func NewPool(ctx context.Context, databaseURL string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// NewPG wraps an existing pool as a Store.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

func (s *PG) Insert(ctx context.Context, collection string, doc Doc) (string, error) {
	if s == nil || s.pool == nil {
		return "", ErrUnavailable
	}
	id := uuid.New()
	body, err := marshalDoc(doc)
	if err != nil {
		return "", err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (id, collection, doc) VALUES ($1, $2, $3)`,
		id, collection, body)
	if err != nil {
		return "", classify(err)
	}
	return id.String(), nil
}

func (s *PG) FindOne(ctx context.Context, collection string, filter Doc) (Doc, error) {
	docs, err := s.FindMany(ctx, collection, filter, 1, 0)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

func (s *PG) FindMany(ctx context.Context, collection string, filter Doc, limit, offset int) ([]Doc, error) {
	if s == nil || s.pool == nil {
		return nil, ErrUnavailable
	}
	body, err := marshalDoc(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, doc, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND doc @> $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`,
		collection, body, limit, offset)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var out []Doc
	for rows.Next() {
		doc, err := scanDoc(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (s *PG) Count(ctx context.Context, collection string, filter Doc) (int, error) {
	if s == nil || s.pool == nil {
		return 0, ErrUnavailable
	}
	body, err := marshalDoc(filter)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM documents WHERE collection = $1 AND doc @> $2`,
		collection, body).Scan(&n)
	if err != nil {
		return 0, classify(err)
	}
	return n, nil
}

func (s *PG) UpdateOne(ctx context.Context, collection string, filter, set Doc) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, ErrUnavailable
	}
	filterBody, err := marshalDoc(filter)
	if err != nil {
		return 0, err
	}
	setBody, err := marshalDoc(set)
	if err != nil {
		return 0, err
	}
	// Postgres has no UPDATE ... LIMIT, so pin the target row via ctid.
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET doc = doc || $3, updated_at = NOW()
		WHERE ctid = (
			SELECT ctid FROM documents
			WHERE collection = $1 AND doc @> $2
			ORDER BY created_at DESC
			LIMIT 1
		)`,
		collection, filterBody, setBody)
	if err != nil {
		return 0, classify(err)
	}
	return tag.RowsAffected(), nil
}

func (s *PG) Ping(ctx context.Context) error {
	if s == nil || s.pool == nil {
		return ErrUnavailable
	}
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func marshalDoc(doc Doc) ([]byte, error) {
	if doc == nil {
		doc = Doc{}
	}
	clean := make(Doc, len(doc))
	for k, v := range doc {
		if k == KeyID || k == KeyCreatedAt || k == KeyUpdatedAt {
			continue
		}
		clean[k] = v
	}
	body, err := json.Marshal(clean)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return body, nil
}

func scanDoc(row pgx.Row) (Doc, error) {
	var (
		id                   uuid.UUID
		body                 []byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &body, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc := Doc{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	doc[KeyID] = id.String()
	doc[KeyCreatedAt] = createdAt
	doc[KeyUpdatedAt] = updatedAt
	return doc, nil
}

// classify maps driver errors onto the store's error kinds. Constraint
// violations become ErrConflict; anything else that is not a typed
// Postgres error is treated as the store being unreachable.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
		}
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
