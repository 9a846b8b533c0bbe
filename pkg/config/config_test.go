package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "A", cfg.Sections.DefaultName)
	assert.Equal(t, 40, cfg.Sections.DefaultCapacity)
	assert.Equal(t, 10, cfg.Sections.CodeMaxAttempts)
	assert.True(t, cfg.Reconcile.HTTPEnabled)
	assert.False(t, cfg.Reconcile.CacheEnabled)
	assert.Equal(t, 24*time.Hour, cfg.Reconcile.ReportTTL)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DEFAULT_SECTION_NAME", "Main")
	v.Set("DEFAULT_SECTION_CAPACITY", 25)
	v.Set("ENROLLMENT_CODE_MAX_ATTEMPTS", 3)
	v.Set("ENABLE_MAINTENANCE_API", false)
	v.Set("ENABLE_REPORT_CACHE", true)
	v.Set("RECONCILE_REPORT_TTL", "90m")
	v.Set("ALLOWED_ORIGINS", " https://lms.example.edu , ,https://admin.example.edu")

	cfg := fromViper(v)
	assert.Equal(t, "Main", cfg.Sections.DefaultName)
	assert.Equal(t, 25, cfg.Sections.DefaultCapacity)
	assert.Equal(t, 3, cfg.Sections.CodeMaxAttempts)
	assert.False(t, cfg.Reconcile.HTTPEnabled)
	assert.True(t, cfg.Reconcile.CacheEnabled)
	assert.Equal(t, 90*time.Minute, cfg.Reconcile.ReportTTL)
	assert.Equal(t, []string{"https://lms.example.edu", "https://admin.example.edu"}, cfg.CORS.AllowedOrigins)
}

func TestFromViperFallsBackOnInvalidValues(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("DEFAULT_SECTION_NAME", "")
	v.Set("DEFAULT_SECTION_CAPACITY", -5)
	v.Set("ENROLLMENT_CODE_MAX_ATTEMPTS", 0)
	v.Set("RECONCILE_REPORT_TTL", "soon")

	cfg := fromViper(v)
	assert.Equal(t, "A", cfg.Sections.DefaultName)
	assert.Equal(t, 40, cfg.Sections.DefaultCapacity)
	assert.Equal(t, 10, cfg.Sections.CodeMaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Reconcile.ReportTTL)
}
