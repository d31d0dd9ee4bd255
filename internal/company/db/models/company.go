// Package models contains the persistence models for the application,
// configured to work using GORM as the ORM.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Company represents a row of the companies table.
// TaxID carries a unique index over every row, soft-deleted ones included.
type Company struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:255;not null"`
	TradeName string `gorm:"size:255;not null"`
	TaxID     string `gorm:"size:32;not null;uniqueIndex"`
	Address   string `gorm:"size:500;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName pins the table name regardless of naming strategy.
func (Company) TableName() string {
	return "companies"
}
