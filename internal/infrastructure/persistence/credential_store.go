package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/domain/shared"
	"github.com/kitsbundles/backend/internal/infrastructure/persistence/models"
)

// GormCredentialStore keeps app credentials in the saleor_app_configuration table, one
// row per (tenant, app name).
type GormCredentialStore struct {
	db      *gorm.DB
	appName string
}

var _ credential.Store = (*GormCredentialStore)(nil)

// NewGormCredentialStore creates a store scoped to appName.
func NewGormCredentialStore(db *gorm.DB, appName string) *GormCredentialStore {
	if appName == "" {
		appName = credential.DefaultAppName
	}
	return &GormCredentialStore{db: db, appName: appName}
}

// Get returns the active credentials of the tenant at saleorAPIURL.
func (s *GormCredentialStore) Get(ctx context.Context, saleorAPIURL string) (*credential.AuthData, error) {
	var model models.AppConfigurationModel
	err := s.db.WithContext(ctx).
		Where("tenant = ? AND app_name = ? AND is_active = ?", saleorAPIURL, s.appName, true).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no active credentials for %s", shared.ErrNotFound, saleorAPIURL)
		}
		return nil, err
	}
	return model.ToDomain()
}

// Set upserts the credentials and marks them active.
func (s *GormCredentialStore) Set(ctx context.Context, data *credential.AuthData) error {
	if err := data.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	model, err := models.AppConfigurationModelFromDomain(s.appName, data)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant"}, {Name: "app_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"configurations", "updated_at", "is_active"}),
		}).
		Create(model).Error
}

// Delete deactivates the tenant's credentials. Deleting an unknown tenant is a no-op.
func (s *GormCredentialStore) Delete(ctx context.Context, saleorAPIURL string) error {
	_, err := s.setActive(ctx, saleorAPIURL, false)
	return err
}

// Activate re-enables previously stored credentials.
func (s *GormCredentialStore) Activate(ctx context.Context, saleorAPIURL string) error {
	rows, err := s.setActive(ctx, saleorAPIURL, true)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: no credentials stored for %s", shared.ErrNotFound, saleorAPIURL)
	}
	return nil
}

func (s *GormCredentialStore) setActive(ctx context.Context, saleorAPIURL string, active bool) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.AppConfigurationModel{}).
		Where("tenant = ? AND app_name = ?", saleorAPIURL, s.appName).
		Updates(map[string]any{
			"is_active":  active,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// GetAll lists every active record of the app, oldest first.
func (s *GormCredentialStore) GetAll(ctx context.Context) ([]credential.AuthData, error) {
	var rows []models.AppConfigurationModel
	err := s.db.WithContext(ctx).
		Where("app_name = ? AND is_active = ?", s.appName, true).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]credential.AuthData, 0, len(rows))
	for i := range rows {
		data, err := rows[i].ToDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *data)
	}
	return out, nil
}

// IsReady runs a trivial query against the database.
func (s *GormCredentialStore) IsReady(ctx context.Context) error {
	return s.db.WithContext(ctx).Exec("SELECT 1").Error
}
