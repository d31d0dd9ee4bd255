package db

import (
	dbmodels "github.com/gartstein/companies/internal/company/db/models"
	"github.com/gartstein/companies/internal/company/models"
)

func toRow(c *models.Company) *dbmodels.Company {
	return &dbmodels.Company{
		ID:        c.ID,
		Name:      c.Name,
		TradeName: c.TradeName,
		TaxID:     c.TaxID,
		Address:   c.Address,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toDomain(row *dbmodels.Company) *models.Company {
	c := &models.Company{
		ID:        row.ID,
		Name:      row.Name,
		TradeName: row.TradeName,
		TaxID:     row.TaxID,
		Address:   row.Address,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.DeletedAt.Valid {
		deletedAt := row.DeletedAt.Time
		c.DeletedAt = &deletedAt
	}
	return c
}
