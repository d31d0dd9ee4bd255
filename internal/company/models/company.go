// Package models defines the core domain models for the Company entity.
// It includes definitions for Company, CompanyInput, CompanyUpdate and the
// pagination types used by search.
package models

import (
	"time"
)

// Company defines the domain model for a company entity.
type Company struct {
	// ID is the store-generated identifier for the company.
	ID int64 `json:"id"`
	// Name is the company’s registered name.
	Name string `json:"name"`
	// TradeName is the name the company trades under.
	TradeName string `json:"tradeName"`
	// TaxID is the natural key of the company. It is unique across all records.
	TaxID string `json:"taxId"`
	// Address is the free-text postal address.
	Address string `json:"address"`
	// CreatedAt records the timestamp when the company was created.
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt records the timestamp when the company was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
	// DeletedAt is set once the company is soft-deleted.
	DeletedAt *time.Time `json:"deletedAt,omitempty"`
}

// CompanyInput carries the fields required to create a Company.
type CompanyInput struct {
	Name      string `json:"name"`
	TradeName string `json:"tradeName"`
	TaxID     string `json:"taxId"`
	Address   string `json:"address"`
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates.
type CompanyUpdate struct {
	// Name is the new name for the company.
	Name *string `json:"name,omitempty"`
	// TradeName is the new trade name.
	TradeName *string `json:"tradeName,omitempty"`
	// TaxID is the new tax identifier.
	TaxID *string `json:"taxId,omitempty"`
	// Address is the new address.
	Address *string `json:"address,omitempty"`
}

// Apply merges the present fields onto c.
func (u *CompanyUpdate) Apply(c *Company) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.TradeName != nil {
		c.TradeName = *u.TradeName
	}
	if u.TaxID != nil {
		c.TaxID = *u.TaxID
	}
	if u.Address != nil {
		c.Address = *u.Address
	}
}
