package inventory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meditrack/meditrack/internal/platform/store"
)

// maxAttempts bounds the compare-and-swap retry loop per item.
const maxAttempts = 5

// ErrContention is returned when an item's record keeps changing underneath
// the update loop for maxAttempts reads in a row.
var ErrContention = errors.New("inventory record contention")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ApplyInflow folds received batches into the ledger. For each line the
// item's quantity grows by the received amount and its average price is
// re-weighted over the combined quantity. Lines are applied independently;
// the first failure aborts the remainder.
func (s *Service) ApplyInflow(ctx context.Context, lines []Inflow) error {
	for _, line := range lines {
		if line.Name == "" || line.Qty < 1 {
			continue
		}
		if err := s.applyLine(ctx, line); err != nil {
			return fmt.Errorf("inventory inflow %q: %w", line.Name, err)
		}
	}
	return nil
}

func (s *Service) applyLine(ctx context.Context, line Inflow) error {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cur, err := s.repo.GetByName(ctx, line.Name)
		if errors.Is(err, store.ErrNotFound) {
			rec := &Record{
				Name:     line.Name,
				Qty:      line.Qty,
				AvgPrice: round2(line.Price),
				Version:  1,
			}
			err = s.repo.Create(ctx, rec)
			if err == nil {
				return nil
			}
			if errors.Is(err, store.ErrConflict) {
				// Lost a create race; the next read sees the
				// winner's record and takes the update path.
				continue
			}
			return err
		}
		if err != nil {
			return err
		}

		newQty := cur.Qty + line.Qty
		weighted := cur.AvgPrice*float64(cur.Qty) + float64(line.Qty)*line.Price
		next := &Record{
			Name:     line.Name,
			Qty:      newQty,
			AvgPrice: round2(weighted / float64(max(1, newQty))),
			Version:  cur.Version + 1,
		}
		ok, err := s.repo.UpdateCAS(ctx, cur.Version, next)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		time.Sleep(time.Duration(attempt+1) * time.Millisecond)
	}
	return ErrContention
}

func (s *Service) Get(ctx context.Context, name string) (*Record, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Record, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
