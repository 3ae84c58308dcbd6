package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Overrides are the settings the environment may replace. Secrets such as
// the Neo4j password normally come from here rather than the project file.
type Overrides struct {
	StorageDSN     string `env:"STORYFORGE_STORAGE_DSN"`
	LogLevel       string `env:"STORYFORGE_LOG_LEVEL"`
	LogDevelopment *bool  `env:"STORYFORGE_LOG_DEVELOPMENT"`
	Neo4jURI       string `env:"STORYFORGE_NEO4J_URI"`
	Neo4jUsername  string `env:"STORYFORGE_NEO4J_USERNAME"`
	Neo4jPassword  string `env:"STORYFORGE_NEO4J_PASSWORD"`
	Neo4jDatabase  string `env:"STORYFORGE_NEO4J_DATABASE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv overlays any STORYFORGE_* variables onto the config.
func (c *ProjectConfig) ApplyEnv() error {
	var o Overrides
	if err := ParseEnv(&o); err != nil {
		return err
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Storage.DSN, o.StorageDSN)
	set(&c.Log.Level, o.LogLevel)
	set(&c.Neo4j.URI, o.Neo4jURI)
	set(&c.Neo4j.Username, o.Neo4jUsername)
	set(&c.Neo4j.Password, o.Neo4jPassword)
	set(&c.Neo4j.Database, o.Neo4jDatabase)
	if o.LogDevelopment != nil {
		c.Log.Development = *o.LogDevelopment
	}
	return nil
}
