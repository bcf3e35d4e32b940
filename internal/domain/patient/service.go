package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/meditrack/meditrack/internal/platform/store"
	"github.com/meditrack/meditrack/pkg/ident"
)

var (
	// ErrDuplicateID is returned when a caller-assigned patient id is
	// already registered.
	ErrDuplicateID = errors.New("duplicate patient id")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a patient. An empty PatientID gets a generated one;
// caller-assigned ids must be unused.
func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Age < 0 {
		return fmt.Errorf("age must not be negative")
	}
	if p.PatientID == "" {
		p.PatientID = ident.NewPatientID()
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) GetByPatientID(ctx context.Context, patientID string) (*Patient, error) {
	return s.repo.GetByPatientID(ctx, patientID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// Exists reports whether a patient id is registered.
func (s *Service) Exists(ctx context.Context, patientID string) (bool, error) {
	_, err := s.repo.GetByPatientID(ctx, patientID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
