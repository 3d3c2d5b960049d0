package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	validConfig := func() Config {
		return Config{
			Endpoint:  "localhost:9000",
			AccessKey: "a",
			SecretKey: "b",
			Region:    "us-east-1",
			Bucket:    "backups",
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("scheme in endpoint", func(t *testing.T) {
		cfg := validConfig()
		cfg.Endpoint = "https://localhost:9000"
		assert.ErrorContains(t, cfg.Validate(), "must not include scheme")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := validConfig()
		cfg.Bucket = ""
		assert.ErrorContains(t, cfg.Validate(), "bucket is required")
	})

	t.Run("missing credentials", func(t *testing.T) {
		cfg := validConfig()
		cfg.AccessKey = ""
		assert.ErrorContains(t, cfg.Validate(), "access_key is required")
	})
}

func TestContainerKey(t *testing.T) {
	tests := []struct {
		parent string
		name   string
		want   string
	}{
		{"", "2026-08-23", "2026-08-23/"},
		{"backups", "2026-08-23", "backups/2026-08-23/"},
		{"backups/", "2026-08-23", "backups/2026-08-23/"},
		{"/backups/", "/2026-08-23/", "backups/2026-08-23/"},
		{"", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.parent+"+"+tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, containerKey(tt.parent, tt.name))
		})
	}
}

func TestContainerKey_Idempotent(t *testing.T) {
	// Repeated ensures of the same (name, parent) must yield the same id.
	first := containerKey("root", "2026-08-23")
	second := containerKey("root", "2026-08-23")
	assert.Equal(t, first, second)
}
