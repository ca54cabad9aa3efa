package config

import (
	"testing"
	"time"

	"goanova/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CSV_DELIMITER", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("MAX_CONCURRENT_FITS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, ';', cfg.Data.Delimiter)
	assert.Equal(t, int64(32<<20), cfg.Data.MaxUploadBytes)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.Equal(t, Default().Data, cfg.Data)
	assert.Equal(t, 4, cfg.Analysis.MaxConcurrentFits)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CSV_DELIMITER", `\t`)
	t.Setenv("MAX_UPLOAD_MB", "4")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("EXCEL_SHEET", "Trial")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, '\t', cfg.Data.Delimiter)
	assert.Equal(t, int64(4<<20), cfg.Data.MaxUploadBytes)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "Trial", cfg.Data.ExcelSheet)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"multi-char delimiter", "CSV_DELIMITER", ";;"},
		{"quote delimiter", "CSV_DELIMITER", `"`},
		{"zero upload size", "MAX_UPLOAD_MB", "0"},
		{"negative preview", "PREVIEW_ROWS", "-1"},
		{"no fit slots", "MAX_CONCURRENT_FITS", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}

func TestLoad_ProfilingAndCookies(t *testing.T) {
	t.Setenv("PPROF_ENABLED", "true")
	t.Setenv("PPROF_PORT", "7070")
	t.Setenv("SECURE_COOKIES", "not-a-bool")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Profiling.Enabled)
	assert.Equal(t, "7070", cfg.Profiling.Port)
	assert.False(t, cfg.Server.SecureCookies)
}

func TestParseDelimiter(t *testing.T) {
	r, err := ParseDelimiter(",")
	require.NoError(t, err)
	assert.Equal(t, ',', r)

	r, err = ParseDelimiter(`\t`)
	require.NoError(t, err)
	assert.Equal(t, '\t', r)

	_, err = ParseDelimiter("\n")
	assert.Error(t, err)
}
