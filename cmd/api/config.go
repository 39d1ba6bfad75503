package main

import (
	"os"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"

	"github.com/aldea-dev/aldea/core"
)

// ServerConfig holds infrastructure endpoints for the api process.
type ServerConfig struct {
	Listen        string `yaml:"listen"`
	Dsn           string `yaml:"dsn"`
	RedisAddr     string `yaml:"redisAddr"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

// Config is the full on-disk configuration.
type Config struct {
	Server ServerConfig     `yaml:"server"`
	App    core.ConfigInput `yaml:"app"`
}

// Load reads the yaml config at path.
func (c *Config) Load(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}
	err = yaml.Unmarshal(raw, c)
	if err != nil {
		return errors.Wrap(err, "failed to parse config file")
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8000"
	}
	return nil
}
