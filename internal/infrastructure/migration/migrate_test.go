package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrations(t *testing.T) {
	migrations, err := ListMigrations()
	require.NoError(t, err)

	require.NotEmpty(t, migrations)
	assert.Equal(t, "000001_create_saleor_app_configuration", migrations[0])
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFiles, sourceDir)
	require.NoError(t, err)

	ups := make(map[string]bool)
	downs := make(map[string]bool)
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file in migrations: %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestCredentialTableSchema(t *testing.T) {
	up, err := fs.ReadFile(migrationFiles, sourceDir+"/000001_create_saleor_app_configuration.up.sql")
	require.NoError(t, err)

	schema := string(up)
	assert.Contains(t, schema, "saleor_app_configuration")
	assert.Contains(t, schema, "configurations JSONB")
	assert.Contains(t, schema, "is_active      BOOLEAN     NOT NULL DEFAULT FALSE")
	assert.Contains(t, schema, "UNIQUE (tenant, app_name)")
}
