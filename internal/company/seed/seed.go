// Package seed fills an empty store with demo companies.
package seed

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/companies/internal/company/errors"
	"github.com/gartstein/companies/internal/company/models"
	"go.uber.org/zap"
)

// DefaultCount is the number of companies Seed creates.
const DefaultCount = 20

const demoAddress = "280 Reverendo Olavo Nunes St, Apt 501, Parque Santa Fe, Porto Alegre - RS, 91180-370"

// Creator creates one company, applying the usual validation and notifications.
type Creator interface {
	CreateCompany(ctx context.Context, input models.CompanyInput) (*models.Company, error)
}

type Seeder struct {
	creator Creator
	count   int
	logger  *zap.Logger
}

func NewSeeder(creator Creator, logger *zap.Logger) *Seeder {
	return &Seeder{
		creator: creator,
		count:   DefaultCount,
		logger:  logger.Named("seeder"),
	}
}

// Companies returns the demo inputs. Tax ids are stable, so seeding twice
// produces conflicts rather than duplicates.
func Companies(n int) []models.CompanyInput {
	out := make([]models.CompanyInput, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.CompanyInput{
			Name:      fmt.Sprintf("Company %d", i+1),
			TradeName: fmt.Sprintf("Company Trading %d", i+1),
			TaxID:     fmt.Sprintf("98.722.%03d/0001-%02d", i, i%100),
			Address:   demoAddress,
		})
	}
	return out
}

// Seed creates the demo companies in order and returns how many were new.
// Companies that already exist are skipped; any other failure stops seeding.
func (s *Seeder) Seed(ctx context.Context) (int, error) {
	created := 0
	for _, input := range Companies(s.count) {
		_, err := s.creator.CreateCompany(ctx, input)
		switch {
		case err == nil:
			created++
		case errors.Is(err, e.ErrConflict):
			s.logger.Info("Skipping existing demo company", zap.String("tax_id", input.TaxID))
		default:
			return created, fmt.Errorf("failed to seed company %q: %w", input.Name, err)
		}
	}

	s.logger.Info("Seeded demo companies", zap.Int("created", created), zap.Int("requested", s.count))
	return created, nil
}
