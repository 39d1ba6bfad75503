package core

import (
	"time"
)

// Config is the runtime service configuration shared across features.
type Config struct {
	SiteName        string
	AccessSecret    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// ConfigInput is the yaml-facing shape; durations are given in seconds.
type ConfigInput struct {
	SiteName           string `yaml:"siteName"`
	AccessSecret       string `yaml:"accessSecret"`
	AccessTokenTTLSec  int    `yaml:"accessTokenTTL"`
	RefreshTokenTTLSec int    `yaml:"refreshTokenTTL"`
}

func (i ConfigInput) ToConfig() Config {
	accessTTL := time.Duration(i.AccessTokenTTLSec) * time.Second
	if accessTTL == 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := time.Duration(i.RefreshTokenTTLSec) * time.Second
	if refreshTTL == 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return Config{
		SiteName:        i.SiteName,
		AccessSecret:    i.AccessSecret,
		AccessTokenTTL:  accessTTL,
		RefreshTokenTTL: refreshTTL,
	}
}
