package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kitsbundles/backend/internal/domain/credential"
)

// AppConfigurationModel is one installed app's credentials for one Saleor instance.
// Rows are never removed: uninstalling clears IsActive.
type AppConfigurationModel struct {
	BaseModel
	Tenant         string `gorm:"type:text;not null;uniqueIndex:uq_saleor_app_configuration_tenant_app"`
	AppName        string `gorm:"type:text;not null;uniqueIndex:uq_saleor_app_configuration_tenant_app"`
	Configurations string `gorm:"type:jsonb;not null"`
	IsActive       bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (AppConfigurationModel) TableName() string {
	return "saleor_app_configuration"
}

// ToDomain decodes the stored configurations.
func (m *AppConfigurationModel) ToDomain() (*credential.AuthData, error) {
	var data credential.AuthData
	if err := json.Unmarshal([]byte(m.Configurations), &data); err != nil {
		return nil, fmt.Errorf("invalid configurations for tenant %s: %w", m.Tenant, err)
	}
	return &data, nil
}

// AppConfigurationModelFromDomain builds an active row for appName.
func AppConfigurationModelFromDomain(appName string, data *credential.AuthData) (*AppConfigurationModel, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configurations: %w", err)
	}
	now := time.Now()
	return &AppConfigurationModel{
		BaseModel: BaseModel{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Tenant:         data.SaleorAPIURL,
		AppName:        appName,
		Configurations: string(raw),
		IsActive:       true,
	}, nil
}
