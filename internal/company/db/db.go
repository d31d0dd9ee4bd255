// Package db implements the company store on top of GORM. Every failure
// leaving this package has been classified by errors.FromDatabase.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	dbmodels "github.com/gartstein/companies/internal/company/db/models"
	e "github.com/gartstein/companies/internal/company/errors"
	"github.com/gartstein/companies/internal/company/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const entityName = "company"

var updatableColumns = []string{"name", "trade_name", "tax_id", "address", "updated_at"}

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	// Logging turns on SQL statement logging.
	Logging bool
	// ConnectTimeout bounds the retries performed by Connect.
	ConnectTimeout time.Duration
}

// DSN renders the libpq connection string for cfg.
func (c *Config) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode)
}

// NewRepository opens a PostgreSQL connection and migrates the schema.
func NewRepository(cfg *Config) (*Repository, error) {
	logLevel := gormlogger.Warn
	if cfg.Logging {
		logLevel = gormlogger.Info
	}
	return Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
}

// Open builds a Repository over any GORM dialector and migrates the schema.
func Open(dialector gorm.Dialector, gormCfg *gorm.Config) (*Repository, error) {
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&dbmodels.Company{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Connect calls NewRepository with exponential backoff until it succeeds,
// ctx is done or cfg.ConnectTimeout elapses.
func Connect(ctx context.Context, cfg *Config, logger *zap.Logger) (*Repository, error) {
	policy := backoff.NewExponentialBackOff()
	if cfg.ConnectTimeout > 0 {
		policy.MaxElapsedTime = cfg.ConnectTimeout
	}

	var repo *Repository
	err := backoff.RetryNotify(func() error {
		var err error
		repo, err = NewRepository(cfg)
		return err
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		logger.Warn("database not ready, retrying",
			zap.Error(err),
			zap.Duration("wait", wait),
		)
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	row := toRow(company)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return e.FromDatabase(err, "failed to create company")
	}
	*company = *toDomain(row)
	return nil
}

func (r *Repository) GetCompany(ctx context.Context, id int64) (*models.Company, error) {
	var row dbmodels.Company
	result := r.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, e.NotFound(entityName, id)
		}
		return nil, e.FromDatabase(result.Error, "failed to get company")
	}
	return toDomain(&row), nil
}

// ListCompanies returns one page of active companies whose name or trade
// name contains req.SearchTerm, ignoring case, plus the total match count.
func (r *Repository) ListCompanies(ctx context.Context, req models.PageRequest) ([]models.Company, int64, error) {
	search := matching(req.SearchTerm)

	var total int64
	if err := r.db.WithContext(ctx).Model(&dbmodels.Company{}).Scopes(search).Count(&total).Error; err != nil {
		return nil, 0, e.FromDatabase(err, "failed to count companies")
	}

	var rows []dbmodels.Company
	err := r.db.WithContext(ctx).Model(&dbmodels.Company{}).Scopes(search).
		Order("id ASC").
		Offset(req.Offset()).
		Limit(req.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, e.FromDatabase(err, "failed to list companies")
	}

	companies := make([]models.Company, 0, len(rows))
	for i := range rows {
		companies = append(companies, *toDomain(&rows[i]))
	}
	return companies, total, nil
}

// UpdateCompany writes the present fields of update onto the active company
// and returns the stored result. The write is a conditional UPDATE, so a
// company deleted or tombstoned meanwhile is reported as not found and is
// never re-created.
func (r *Repository) UpdateCompany(ctx context.Context, id int64, update *models.CompanyUpdate) (*models.Company, error) {
	var updated *models.Company
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		company, err := tx.GetCompany(ctx, id)
		if err != nil {
			return err
		}

		update.Apply(company)
		result := tx.db.WithContext(ctx).
			Model(&dbmodels.Company{ID: id}).
			Select(updatableColumns).
			Updates(toRow(company))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.NotFound(entityName, id)
		}

		updated, err = tx.GetCompany(ctx, id)
		return err
	})
	if err != nil {
		return nil, e.FromDatabase(err, "failed to update company")
	}
	return updated, nil
}

// DeleteCompany removes the row for good, whether or not it was soft-deleted,
// and reports the number of rows removed.
func (r *Repository) DeleteCompany(ctx context.Context, id int64) (int64, error) {
	result := r.db.WithContext(ctx).Unscoped().Delete(&dbmodels.Company{}, "id = ?", id)
	if result.Error != nil {
		return 0, e.FromDatabase(result.Error, "failed to delete company")
	}
	if result.RowsAffected == 0 {
		return 0, e.NotFound(entityName, id)
	}
	return result.RowsAffected, nil
}

// SoftDeleteCompany stamps deleted_at on an active company and returns the
// tombstoned record as stored.
func (r *Repository) SoftDeleteCompany(ctx context.Context, id int64) (*models.Company, error) {
	var deleted *models.Company
	err := r.WithTransaction(ctx, func(tx *Repository) error {
		result := tx.db.WithContext(ctx).Delete(&dbmodels.Company{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.NotFound(entityName, id)
		}

		var row dbmodels.Company
		if err := tx.db.WithContext(ctx).Unscoped().First(&row, "id = ?", id).Error; err != nil {
			return err
		}
		deleted = toDomain(&row)
		return nil
	})
	if err != nil {
		return nil, e.FromDatabase(err, "failed to soft delete company")
	}
	return deleted, nil
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// WithTransaction runs fn against a Repository bound to one transaction.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Exec(ctx context.Context, query string, params ...interface{}) error {
	result := r.db.WithContext(ctx).Exec(query, params...)
	if result.Error != nil {
		return result.Error
	}
	return nil
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func matching(term string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}
		pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
		return db.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(trade_name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
}
