package config

import (
	"time"
)

// BackendConfig describes how to reach the marketplace identity API.
type BackendConfig interface {
	GetIdentityAPIURL() string
	GetIdentityTimeout() time.Duration
}

type Backend struct{}

var _ BackendConfig = Backend{}

func (Backend) GetIdentityAPIURL() string {
	return GetEnv("IDENTITY_API_URL", "http://localhost:9000/api/v1")
}

func (Backend) GetIdentityTimeout() time.Duration {
	return getDuration("IDENTITY_API_TIMEOUT", 15*time.Second)
}

func getDuration(envVar string, defaultValue time.Duration) time.Duration {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return defaultValue
	}
	return d
}
