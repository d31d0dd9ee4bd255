package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	e "github.com/gartstein/companies/internal/company/errors"
)

const (
	maxNameLength    = 255
	maxTaxIDLength   = 32
	maxAddressLength = 500
)

var (
	validate = newValidator()

	nameRule    = fmt.Sprintf("notblank,max=%d", maxNameLength)
	taxIDRule   = fmt.Sprintf("notblank,max=%d", maxTaxIDLength)
	addressRule = fmt.Sprintf("notblank,max=%d", maxAddressLength)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate checks that every field required to create a company is present.
// It returns a *errors.ValidationError listing each offending field.
func (in *CompanyInput) Validate() error {
	v := &e.ValidationError{}
	checkText(v, "name", in.Name, nameRule)
	checkText(v, "tradeName", in.TradeName, nameRule)
	checkText(v, "taxId", in.TaxID, taxIDRule)
	checkText(v, "address", in.Address, addressRule)
	return v.OrNil()
}

// Validate checks the supplied fields only. An update without any field is
// valid and leaves the company unchanged.
func (u *CompanyUpdate) Validate() error {
	v := &e.ValidationError{}
	optionalText(v, "name", u.Name, nameRule)
	optionalText(v, "tradeName", u.TradeName, nameRule)
	optionalText(v, "taxId", u.TaxID, taxIDRule)
	optionalText(v, "address", u.Address, addressRule)
	return v.OrNil()
}

// Normalize trims surrounding whitespace from every field.
func (in *CompanyInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.TradeName = strings.TrimSpace(in.TradeName)
	in.TaxID = strings.TrimSpace(in.TaxID)
	in.Address = strings.TrimSpace(in.Address)
}

// Normalize trims surrounding whitespace from every supplied field.
func (u *CompanyUpdate) Normalize() {
	for _, f := range []*string{u.Name, u.TradeName, u.TaxID, u.Address} {
		if f != nil {
			*f = strings.TrimSpace(*f)
		}
	}
}

// checkText runs value through rule. Lengths are counted in characters,
// matching the varchar limits of the store.
func checkText(v *e.ValidationError, field, value, rule string) {
	err := validate.Var(value, rule)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		v.Add(field, "is invalid")
		return
	}
	switch fe := fieldErrs[0]; fe.ActualTag() {
	case "notblank":
		v.Add(field, "must not be empty")
	case "max":
		v.Add(field, fmt.Sprintf("must be at most %s characters", fe.Param()))
	default:
		v.Add(field, "is invalid")
	}
}

func optionalText(v *e.ValidationError, field string, value *string, rule string) {
	if value == nil {
		return
	}
	checkText(v, field, *value, rule)
}
