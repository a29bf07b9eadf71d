package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Env:         "development",
		Port:        "8375",
		JWTSecret:   "secure-secret-at-least-32-chars-long",
		StoreDriver: "redis",
		DBPassword:  "secure-password",
		RedisURL:    "redis://localhost:6379",
	}
}

func TestConfig_ValidateStoreDriver(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		driver      string
		expectError bool
	}{
		{"redis driver", "development", "redis", false},
		{"gorm driver", "development", "gorm", false},
		{"memory driver in development", "development", "memory", false},
		{"memory driver in production", "production", "memory", true},
		{"unknown driver", "development", "bolt", true},
		{"empty driver", "development", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.StoreDriver = tt.driver

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_ValidateProductionSecrets(t *testing.T) {
	c := validConfig()
	c.Env = "production"
	c.JWTSecret = "your-secret-key-change-in-production"
	assert.Error(t, c.Validate())

	c.JWTSecret = "short"
	assert.Error(t, c.Validate())

	c.JWTSecret = "secure-secret-at-least-32-chars-long"
	assert.NoError(t, c.Validate())
}

func TestConfig_ValidateProductionDBPassword(t *testing.T) {
	c := validConfig()
	c.Env = "production"
	c.StoreDriver = "gorm"
	c.DBPassword = "password"
	assert.Error(t, c.Validate())

	c.DBPassword = "actually-strong-password"
	assert.NoError(t, c.Validate())
}

func TestConfig_ValidateRequiredFields(t *testing.T) {
	c := validConfig()
	c.Port = ""
	assert.Error(t, c.Validate())

	c = validConfig()
	c.JWTSecret = ""
	assert.Error(t, c.Validate())
}
