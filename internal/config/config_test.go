package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 5*time.Second, cfg.StoreTimeout)
	assert.Equal(t, 12*time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 2.0, cfg.AlertDefaultRadiusKm)
	assert.Equal(t, 50.0, cfg.AlertMaxRadiusKm)
	assert.Equal(t, "@every 30s", cfg.GroupRefreshSpec)
	assert.NotEmpty(t, cfg.JWTSecret)
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("STORE_TIMEOUT", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "STORE_TIMEOUT")
}

func TestLoad_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RadiusBounds(t *testing.T) {
	t.Setenv("ALERT_DEFAULT_RADIUS_KM", "10")
	t.Setenv("ALERT_MAX_RADIUS_KM", "5")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "water")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "alerts")

	assert.Equal(t, "postgres://water:p%40ss@db:5432/alerts?sslmode=disable", getDatabaseURL())
}
