// Package controller implements the core business logic (service layer)
// for managing Company entities, orchestrating repository operations,
// notifications and lifecycle events.
package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/companies/internal/company/errors"
	"github.com/gartstein/companies/internal/company/events"
	"github.com/gartstein/companies/internal/company/metrics"
	"github.com/gartstein/companies/internal/company/models"
	"github.com/gartstein/companies/internal/company/notify"
	"go.uber.org/zap"
)

type EventProducer interface {
	Produce(eventType events.EventType, company *models.Company)
}

// Notifier renders a notification template and delivers it to the payload's recipients.
type Notifier interface {
	Notify(ctx context.Context, payload notify.Payload, tmpl notify.Template, subject string) error
}

// Repository defines the storage interface for Company objects.
// Errors it returns are already classified; a missing or tombstoned
// company is reported as errors.ErrNotFound.
type Repository interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id int64) (*models.Company, error)
	ListCompanies(ctx context.Context, req models.PageRequest) ([]models.Company, int64, error)
	UpdateCompany(ctx context.Context, id int64, update *models.CompanyUpdate) (*models.Company, error)
	DeleteCompany(ctx context.Context, id int64) (int64, error)
	SoftDeleteCompany(ctx context.Context, id int64) (*models.Company, error)
}

// Config carries the service settings.
type Config struct {
	// Recipients receive the created/updated notifications.
	Recipients []string
	// MaxLimit caps the page size of FindAll.
	MaxLimit int
}

// CompanyService provides methods to manage companies via repository
// operations, notifications and event production.
type CompanyService struct {
	repo     Repository
	notifier Notifier
	producer EventProducer
	metrics  *metrics.Metrics
	cfg      Config
	logger   *zap.Logger
}

// NewCompanyService constructs a CompanyService.
func NewCompanyService(
	repo Repository,
	notifier Notifier,
	producer EventProducer,
	m *metrics.Metrics,
	cfg Config,
	logger *zap.Logger,
) *CompanyService {
	if cfg.MaxLimit <= 0 {
		cfg.MaxLimit = models.MaxLimit
	}
	return &CompanyService{
		repo:     repo,
		notifier: notifier,
		producer: producer,
		metrics:  m,
		cfg:      cfg,
		logger:   logger.Named("company_service"),
	}
}

// CreateCompany validates input, persists a new Company and sends the
// "created" notification. A duplicate tax id is reported by the store as a
// conflict; the service never checks for it beforehand.
func (s *CompanyService) CreateCompany(ctx context.Context, input models.CompanyInput) (*models.Company, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	company := &models.Company{
		Name:      input.Name,
		TradeName: input.TradeName,
		TaxID:     input.TaxID,
		Address:   input.Address,
	}
	if err := s.repo.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.metrics.IncrementCreated()
	s.producer.Produce(events.CompanyCreated, company)
	s.notify(ctx, company, notify.TemplateCompanyCreated, notify.SubjectCompanyCreated)

	return company, nil
}

// FindAll returns one page of companies whose name or trade name contains
// the search term, ignoring case.
func (s *CompanyService) FindAll(ctx context.Context, req models.PageRequest) (*models.Page, error) {
	req.Normalize(s.cfg.MaxLimit)

	companies, total, err := s.repo.ListCompanies(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	page := models.NewPage(companies, total, req)
	return &page, nil
}

// FindOne retrieves a Company by ID, returning an error if not found.
func (s *CompanyService) FindOne(ctx context.Context, id int64) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// UpdateCompany merges the supplied fields onto the company and sends the
// "updated" notification. An update without fields still requires the
// company to exist and leaves it unchanged.
func (s *CompanyService) UpdateCompany(ctx context.Context, id int64, update models.CompanyUpdate) (*models.Company, error) {
	update.Normalize()
	if err := update.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateCompany(ctx, id, &update)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	s.metrics.IncrementUpdated()
	s.producer.Produce(events.CompanyUpdated, updated)
	s.notify(ctx, updated, notify.TemplateCompanyUpdated, notify.SubjectCompanyUpdated)

	return updated, nil
}

// RemoveCompany deletes the company row for good and reports the number of
// rows removed.
func (s *CompanyService) RemoveCompany(ctx context.Context, id int64) (int64, error) {
	affected, err := s.repo.DeleteCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to delete company: %w", err)
	}

	s.metrics.IncrementDeleted("hard")
	s.producer.Produce(events.CompanyDeleted, &models.Company{ID: id})
	return affected, nil
}

// SoftRemoveCompany tombstones an active company. Tombstoned companies are
// hidden from every read, so a second call reports not found.
func (s *CompanyService) SoftRemoveCompany(ctx context.Context, id int64) error {
	company, err := s.repo.SoftDeleteCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to soft delete company: %w", err)
	}

	s.metrics.IncrementDeleted("soft")
	s.producer.Produce(events.CompanySoftDeleted, company)
	return nil
}

// notify sends a notification for company. Failures are logged and counted
// but never undo or fail the mutation that triggered them.
func (s *CompanyService) notify(ctx context.Context, company *models.Company, tmpl notify.Template, subject string) {
	payload := notify.Payload{
		Name:       company.Name,
		TradeName:  company.TradeName,
		TaxID:      company.TaxID,
		Address:    company.Address,
		Recipients: s.cfg.Recipients,
	}

	if err := s.notifier.Notify(ctx, payload, tmpl, subject); err != nil {
		s.metrics.IncrementNotificationFailed(string(tmpl))
		s.logger.Error("Failed to send company notification",
			zap.Error(err),
			zap.String("template", string(tmpl)),
			zap.Int64("company_id", company.ID),
		)
	}
}
