package controller

import (
	"context"
	"errors"
	"testing"
	"time"

	e "github.com/gartstein/companies/internal/company/errors"
	"github.com/gartstein/companies/internal/company/events"
	"github.com/gartstein/companies/internal/company/metrics"
	"github.com/gartstein/companies/internal/company/models"
	"github.com/gartstein/companies/internal/company/notify"
	"github.com/gartstein/companies/internal/pkg/utils"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// MockRepository implements the Repository interface for testing
type MockRepository struct {
	createCompany     func(context.Context, *models.Company) error
	getCompany        func(context.Context, int64) (*models.Company, error)
	listCompanies     func(context.Context, models.PageRequest) ([]models.Company, int64, error)
	updateCompany     func(context.Context, int64, *models.CompanyUpdate) (*models.Company, error)
	deleteCompany     func(context.Context, int64) (int64, error)
	softDeleteCompany func(context.Context, int64) (*models.Company, error)
}

func (m *MockRepository) CreateCompany(ctx context.Context, c *models.Company) error {
	return m.createCompany(ctx, c)
}

func (m *MockRepository) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	return m.getCompany(ctx, id)
}

func (m *MockRepository) ListCompanies(ctx context.Context, req models.PageRequest) ([]models.Company, int64, error) {
	return m.listCompanies(ctx, req)
}

func (m *MockRepository) UpdateCompany(ctx context.Context, id int64, u *models.CompanyUpdate) (*models.Company, error) {
	return m.updateCompany(ctx, id, u)
}

func (m *MockRepository) DeleteCompany(ctx context.Context, id int64) (int64, error) {
	return m.deleteCompany(ctx, id)
}

func (m *MockRepository) SoftDeleteCompany(ctx context.Context, id int64) (*models.Company, error) {
	return m.softDeleteCompany(ctx, id)
}

type notification struct {
	payload  notify.Payload
	template notify.Template
	subject  string
}

// MockNotifier records every notification it is asked to send.
type MockNotifier struct {
	sent []notification
	err  error
}

func (m *MockNotifier) Notify(_ context.Context, payload notify.Payload, tmpl notify.Template, subject string) error {
	m.sent = append(m.sent, notification{payload: payload, template: tmpl, subject: subject})
	return m.err
}

// MockProducer is a test double for the Kafka producer.
type MockProducer struct {
	producedEvents    []events.EventType
	producedCompanies []*models.Company
}

func (m *MockProducer) Produce(eventType events.EventType, company *models.Company) {
	m.producedEvents = append(m.producedEvents, eventType)
	m.producedCompanies = append(m.producedCompanies, company)
}

var recipients = []string{"ops@example.com", "audit@example.com"}

func newTestService(t *testing.T, repo Repository, notifier Notifier, producer EventProducer) (*CompanyService, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewCompanyService(repo, notifier, producer, m, Config{Recipients: recipients}, zaptest.NewLogger(t)), m
}

func validInput() models.CompanyInput {
	return models.CompanyInput{Name: "Acme", TradeName: "Acme Co", TaxID: "123", Address: "X"}
}

func TestCompanyService_CreateCompany(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name          string
		input         models.CompanyInput
		mockSetup     func(*MockRepository)
		expectError   bool
		expectedError error
	}{
		{
			name:  "successful creation",
			input: validInput(),
			mockSetup: func(mr *MockRepository) {
				mr.createCompany = func(_ context.Context, c *models.Company) error {
					c.ID = 1
					c.CreatedAt = now
					c.UpdatedAt = now
					return nil
				}
			},
		},
		{
			name:  "duplicate tax id",
			input: validInput(),
			mockSetup: func(mr *MockRepository) {
				mr.createCompany = func(_ context.Context, _ *models.Company) error {
					return e.FromDatabase(&pgconn.PgError{Code: "23505", Detail: "Key (tax_id)=(123) already exists."}, "failed to create company")
				}
			},
			expectError:   true,
			expectedError: e.ErrConflict,
		},
		{
			name:          "missing fields",
			input:         models.CompanyInput{Name: "Acme"},
			mockSetup:     func(_ *MockRepository) {},
			expectError:   true,
			expectedError: e.ErrInvalidInput,
		},
		{
			name:  "repository error",
			input: validInput(),
			mockSetup: func(mr *MockRepository) {
				mr.createCompany = func(_ context.Context, _ *models.Company) error {
					return e.FromDatabase(errors.New("database error"), "failed to create company")
				}
			},
			expectError:   true,
			expectedError: e.ErrInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			mockNotifier := &MockNotifier{}
			mockProducer := &MockProducer{}
			tt.mockSetup(mockRepo)
			service, m := newTestService(t, mockRepo, mockNotifier, mockProducer)

			result, err := service.CreateCompany(context.Background(), tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, mockNotifier.sent, "no notification for a failed create")
				assert.Empty(t, mockProducer.producedEvents)
				assert.Equal(t, 0.0, testutil.ToFloat64(m.CompaniesCreated))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, int64(1), result.ID)
			assert.Equal(t, "Acme", result.Name)
			assert.Equal(t, []events.EventType{events.CompanyCreated}, mockProducer.producedEvents)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.CompaniesCreated))

			require.Len(t, mockNotifier.sent, 1)
			sent := mockNotifier.sent[0]
			assert.Equal(t, notify.TemplateCompanyCreated, sent.template)
			assert.Equal(t, notify.SubjectCompanyCreated, sent.subject)
			assert.Equal(t, notify.Payload{
				Name:       "Acme",
				TradeName:  "Acme Co",
				TaxID:      "123",
				Address:    "X",
				Recipients: recipients,
			}, sent.payload)
		})
	}
}

func TestCompanyService_CreateCompanyKeepsDiagnosticDetail(t *testing.T) {
	mockRepo := &MockRepository{
		createCompany: func(_ context.Context, _ *models.Company) error {
			return e.FromDatabase(&pgconn.PgError{Code: "23505", Detail: "Key (tax_id)=(123) already exists."}, "failed to create company")
		},
	}
	service, _ := newTestService(t, mockRepo, &MockNotifier{}, &MockProducer{})

	_, err := service.CreateCompany(context.Background(), validInput())

	var classified *e.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, e.KindConflict, classified.Kind)
	assert.Equal(t, "a record with these values already exists", classified.Message)
	assert.Equal(t, "Key (tax_id)=(123) already exists.", classified.Detail)
}

func TestCompanyService_CreateCompanyTrimsInput(t *testing.T) {
	var stored *models.Company
	mockRepo := &MockRepository{
		createCompany: func(_ context.Context, c *models.Company) error {
			stored = c
			c.ID = 1
			return nil
		},
	}
	service, _ := newTestService(t, mockRepo, &MockNotifier{}, &MockProducer{})

	input := validInput()
	input.Name = "  Acme  "
	_, err := service.CreateCompany(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.Name)
}

func TestCompanyService_NotificationFailureDoesNotFailMutation(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	mockRepo := &MockRepository{
		createCompany: func(_ context.Context, c *models.Company) error {
			c.ID = 9
			return nil
		},
		updateCompany: func(_ context.Context, id int64, _ *models.CompanyUpdate) (*models.Company, error) {
			return &models.Company{ID: id, Name: "Acme"}, nil
		},
	}
	mockNotifier := &MockNotifier{err: errors.New("smtp: connection refused")}
	m := metrics.New(prometheus.NewRegistry())
	service := NewCompanyService(mockRepo, mockNotifier, &MockProducer{}, m, Config{Recipients: recipients}, zap.New(core))

	created, err := service.CreateCompany(context.Background(), validInput())
	require.NoError(t, err, "persisted company must be returned even when mail fails")
	assert.Equal(t, int64(9), created.ID)

	_, err = service.UpdateCompany(context.Background(), 9, models.CompanyUpdate{Address: utils.Ptr("Y")})
	require.NoError(t, err)

	assert.Equal(t, 2, recorded.FilterMessage("Failed to send company notification").Len())
	assert.Equal(t, 1, recorded.FilterField(zap.String("template", string(notify.TemplateCompanyCreated))).Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsFailed.WithLabelValues(string(notify.TemplateCompanyCreated))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationsFailed.WithLabelValues(string(notify.TemplateCompanyUpdated))))
}

func TestCompanyService_FindAll(t *testing.T) {
	companies := []models.Company{{ID: 1, Name: "ACME Corp"}, {ID: 2, Name: "Acme Two"}}

	tests := []struct {
		name         string
		input        models.PageRequest
		total        int64
		wantRequest  models.PageRequest
		wantLastPage int
	}{
		{
			name:         "defaults",
			input:        models.PageRequest{},
			total:        2,
			wantRequest:  models.PageRequest{Page: 1, Limit: 10},
			wantLastPage: 1,
		},
		{
			name:         "search and paging passed through",
			input:        models.PageRequest{Page: 2, Limit: 2, SearchTerm: "acme"},
			total:        5,
			wantRequest:  models.PageRequest{Page: 2, Limit: 2, SearchTerm: "acme"},
			wantLastPage: 3,
		},
		{
			name:         "limit capped",
			input:        models.PageRequest{Page: 1, Limit: 1000},
			total:        2,
			wantRequest:  models.PageRequest{Page: 1, Limit: 100},
			wantLastPage: 1,
		},
		{
			name:         "nothing matched",
			input:        models.PageRequest{Page: 1, Limit: 10, SearchTerm: "zzz"},
			total:        0,
			wantRequest:  models.PageRequest{Page: 1, Limit: 10, SearchTerm: "zzz"},
			wantLastPage: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got models.PageRequest
			mockRepo := &MockRepository{
				listCompanies: func(_ context.Context, req models.PageRequest) ([]models.Company, int64, error) {
					got = req
					if tt.total == 0 {
						return nil, 0, nil
					}
					return companies, tt.total, nil
				},
			}
			service, _ := newTestService(t, mockRepo, &MockNotifier{}, &MockProducer{})

			page, err := service.FindAll(context.Background(), tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRequest, got)
			assert.Equal(t, tt.total, page.Total)
			assert.Equal(t, tt.wantRequest.Page, page.Page)
			assert.Equal(t, tt.wantLastPage, page.LastPage)
			assert.LessOrEqual(t, len(page.Data), tt.wantRequest.Limit)
			assert.NotNil(t, page.Data)
		})
	}
}

func TestCompanyService_FindAllError(t *testing.T) {
	mockRepo := &MockRepository{
		listCompanies: func(_ context.Context, _ models.PageRequest) ([]models.Company, int64, error) {
			return nil, 0, e.FromDatabase(errors.New("timeout"), "failed to list companies")
		},
	}
	service, _ := newTestService(t, mockRepo, &MockNotifier{}, &MockProducer{})

	_, err := service.FindAll(context.Background(), models.PageRequest{})
	assert.ErrorIs(t, err, e.ErrInternal)
}

func TestCompanyService_FindOne(t *testing.T) {
	validCompany := &models.Company{ID: 1, Name: "Existing Company"}

	tests := []struct {
		name          string
		input         int64
		mockSetup     func(*MockRepository)
		expectError   bool
		expectedError error
	}{
		{
			name:  "successful get",
			input: 1,
			mockSetup: func(mr *MockRepository) {
				mr.getCompany = func(_ context.Context, _ int64) (*models.Company, error) {
					return validCompany, nil
				}
			},
		},
		{
			name:  "not found",
			input: 2,
			mockSetup: func(mr *MockRepository) {
				mr.getCompany = func(_ context.Context, id int64) (*models.Company, error) {
					return nil, e.NotFound("company", id)
				}
			},
			expectError:   true,
			expectedError: e.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			tt.mockSetup(mockRepo)
			service, _ := newTestService(t, mockRepo, &MockNotifier{}, &MockProducer{})

			result, err := service.FindOne(context.Background(), tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, result.ID)
		})
	}
}

func TestCompanyService_UpdateCompany(t *testing.T) {
	existing := models.Company{ID: 1, Name: "Acme", TradeName: "Acme Co", TaxID: "123", Address: "X"}

	tests := []struct {
		name          string
		id            int64
		input         models.CompanyUpdate
		mockSetup     func(*MockRepository)
		expectError   bool
		expectedError error
	}{
		{
			name:  "successful update",
			id:    1,
			input: models.CompanyUpdate{Address: utils.Ptr("Y")},
			mockSetup: func(mr *MockRepository) {
				mr.updateCompany = func(_ context.Context, _ int64, u *models.CompanyUpdate) (*models.Company, error) {
					merged := existing
					u.Apply(&merged)
					return &merged, nil
				}
			},
		},
		{
			name:  "not found is passed through unchanged",
			id:    99,
			input: models.CompanyUpdate{Address: utils.Ptr("Y")},
			mockSetup: func(mr *MockRepository) {
				mr.updateCompany = func(_ context.Context, id int64, _ *models.CompanyUpdate) (*models.Company, error) {
					return nil, e.NotFound("company", id)
				}
			},
			expectError:   true,
			expectedError: e.ErrNotFound,
		},
		{
			name:  "duplicate tax id",
			id:    1,
			input: models.CompanyUpdate{TaxID: utils.Ptr("456")},
			mockSetup: func(mr *MockRepository) {
				mr.updateCompany = func(_ context.Context, _ int64, _ *models.CompanyUpdate) (*models.Company, error) {
					return nil, e.FromDatabase(&pgconn.PgError{Code: "23505"}, "failed to update company")
				}
			},
			expectError:   true,
			expectedError: e.ErrConflict,
		},
		{
			name:  "generic store failure",
			id:    1,
			input: models.CompanyUpdate{Name: utils.Ptr("Acme 2")},
			mockSetup: func(mr *MockRepository) {
				mr.updateCompany = func(_ context.Context, _ int64, _ *models.CompanyUpdate) (*models.Company, error) {
					return nil, e.FromDatabase(errors.New("disk full"), "failed to update company")
				}
			},
			expectError:   true,
			expectedError: e.ErrInternal,
		},
		{
			name:  "empty update on a missing company",
			id:    999,
			input: models.CompanyUpdate{},
			mockSetup: func(mr *MockRepository) {
				mr.updateCompany = func(_ context.Context, id int64, _ *models.CompanyUpdate) (*models.Company, error) {
					return nil, e.NotFound("company", id)
				}
			},
			expectError:   true,
			expectedError: e.ErrNotFound,
		},
		{
			name:          "blank field",
			id:            1,
			input:         models.CompanyUpdate{Name: utils.Ptr(" ")},
			mockSetup:     func(_ *MockRepository) {},
			expectError:   true,
			expectedError: e.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			mockNotifier := &MockNotifier{}
			mockProducer := &MockProducer{}
			tt.mockSetup(mockRepo)
			service, _ := newTestService(t, mockRepo, mockNotifier, mockProducer)

			updated, err := service.UpdateCompany(context.Background(), tt.id, tt.input)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, mockNotifier.sent)
				assert.Empty(t, mockProducer.producedEvents)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "Y", updated.Address)
			assert.Equal(t, existing.Name, updated.Name, "fields not in the update stay unchanged")
			assert.Equal(t, existing.TradeName, updated.TradeName)
			assert.Equal(t, existing.TaxID, updated.TaxID)
			assert.Equal(t, []events.EventType{events.CompanyUpdated}, mockProducer.producedEvents)

			require.Len(t, mockNotifier.sent, 1)
			assert.Equal(t, notify.TemplateCompanyUpdated, mockNotifier.sent[0].template)
			assert.Equal(t, notify.SubjectCompanyUpdated, mockNotifier.sent[0].subject)
			assert.Equal(t, "Y", mockNotifier.sent[0].payload.Address)
			assert.Equal(t, recipients, mockNotifier.sent[0].payload.Recipients)
		})
	}
}

func TestCompanyService_UpdateNotFoundIsNotWrapped(t *testing.T) {
	nf := e.NotFound("company", 5)
	mockRepo := &MockRepository{
		updateCompany: func(_ context.Context, _ int64, _ *models.CompanyUpdate) (*models.Company, error) {
			return nil, nf
		},
	}
	service, _ := newTestService(t, mockRepo, &MockNotifier{}, &MockProducer{})

	_, err := service.UpdateCompany(context.Background(), 5, models.CompanyUpdate{Name: utils.Ptr("x")})
	assert.Same(t, nf, err)
}

func TestCompanyService_RemoveCompany(t *testing.T) {
	tests := []struct {
		name          string
		mockSetup     func(*MockRepository)
		expectError   bool
		expectedError error
	}{
		{
			name: "successful deletion",
			mockSetup: func(mr *MockRepository) {
				mr.deleteCompany = func(_ context.Context, _ int64) (int64, error) {
					return 1, nil
				}
			},
		},
		{
			name: "not found",
			mockSetup: func(mr *MockRepository) {
				mr.deleteCompany = func(_ context.Context, id int64) (int64, error) {
					return 0, e.NotFound("company", id)
				}
			},
			expectError:   true,
			expectedError: e.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := &MockRepository{}
			mockProducer := &MockProducer{}
			tt.mockSetup(mockRepo)
			service, m := newTestService(t, mockRepo, &MockNotifier{}, mockProducer)

			affected, err := service.RemoveCompany(context.Background(), 1)

			if tt.expectError {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, mockProducer.producedEvents)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(1), affected)
			assert.Equal(t, []events.EventType{events.CompanyDeleted}, mockProducer.producedEvents)
			assert.Equal(t, 1.0, testutil.ToFloat64(m.CompaniesDeleted.WithLabelValues("hard")))
		})
	}
}

func TestCompanyService_UpdateWithoutFields(t *testing.T) {
	existing := models.Company{ID: 1, Name: "Acme", TradeName: "Acme Co", TaxID: "123", Address: "X"}
	mockRepo := &MockRepository{
		updateCompany: func(_ context.Context, _ int64, u *models.CompanyUpdate) (*models.Company, error) {
			merged := existing
			u.Apply(&merged)
			return &merged, nil
		},
	}
	mockNotifier := &MockNotifier{}
	mockProducer := &MockProducer{}
	service, _ := newTestService(t, mockRepo, mockNotifier, mockProducer)

	updated, err := service.UpdateCompany(context.Background(), 1, models.CompanyUpdate{})

	require.NoError(t, err)
	assert.Equal(t, &existing, updated)
	assert.Equal(t, []events.EventType{events.CompanyUpdated}, mockProducer.producedEvents)
	require.Len(t, mockNotifier.sent, 1)
	assert.Equal(t, notify.TemplateCompanyUpdated, mockNotifier.sent[0].template)
}

func TestCompanyService_SoftRemoveCompany(t *testing.T) {
	t.Run("tombstones an active company", func(t *testing.T) {
		deletedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		mockRepo := &MockRepository{
			softDeleteCompany: func(_ context.Context, id int64) (*models.Company, error) {
				return &models.Company{ID: id, Name: "Acme", DeletedAt: &deletedAt}, nil
			},
		}
		mockProducer := &MockProducer{}
		service, m := newTestService(t, mockRepo, &MockNotifier{}, mockProducer)

		require.NoError(t, service.SoftRemoveCompany(context.Background(), 1))
		assert.Equal(t, []events.EventType{events.CompanySoftDeleted}, mockProducer.producedEvents)
		require.Len(t, mockProducer.producedCompanies, 1)
		require.NotNil(t, mockProducer.producedCompanies[0].DeletedAt)
		assert.True(t, deletedAt.Equal(*mockProducer.producedCompanies[0].DeletedAt), "event carries the stored tombstone")
		assert.Equal(t, 1.0, testutil.ToFloat64(m.CompaniesDeleted.WithLabelValues("soft")))
	})

	t.Run("missing company is not found", func(t *testing.T) {
		nf := e.NotFound("company", 1)
		mockRepo := &MockRepository{
			softDeleteCompany: func(_ context.Context, _ int64) (*models.Company, error) {
				return nil, nf
			},
		}
		mockProducer := &MockProducer{}
		service, m := newTestService(t, mockRepo, &MockNotifier{}, mockProducer)

		err := service.SoftRemoveCompany(context.Background(), 1)
		assert.Same(t, nf, err)
		assert.Empty(t, mockProducer.producedEvents)
		assert.Equal(t, 0.0, testutil.ToFloat64(m.CompaniesDeleted.WithLabelValues("soft")))
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		mockRepo := &MockRepository{
			softDeleteCompany: func(_ context.Context, _ int64) (*models.Company, error) {
				return nil, e.FromDatabase(errors.New("disk full"), "failed to soft delete company")
			},
		}
		service, _ := newTestService(t, mockRepo, &MockNotifier{}, &MockProducer{})

		err := service.SoftRemoveCompany(context.Background(), 1)
		assert.ErrorIs(t, err, e.ErrInternal)
		assert.Contains(t, err.Error(), "failed to soft delete company")
	})
}
