package config

import "strconv"

type SecurityConfig interface {
	GetAuthRateLimitRPM() int
	GetGeneralRateLimitRPM() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetAuthRateLimitRPM() int {
	return getInt("AUTH_RATE_LIMIT_RPM", 10)
}

func (Security) GetGeneralRateLimitRPM() int {
	return getInt("RATE_LIMIT_RPM", 120)
}

func getInt(envVar string, defaultValue int) int {
	raw := GetEnv(envVar, "")
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultValue
	}
	return n
}
