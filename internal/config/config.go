// Package config handles meshadvisor configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshadvisor/internal/logger"
	"github.com/Faultbox/meshadvisor/internal/rules"
	"github.com/Faultbox/meshadvisor/internal/scan"
)

// Config holds all application settings.
type Config struct {
	Rules   rules.Set     `yaml:"rules"`
	Scan    scan.Config   `yaml:"scan"`
	Store   StoreConfig   `yaml:"store"`
	Report  ReportConfig  `yaml:"report"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig locates the asset catalog.
type StoreConfig struct {
	Path string `yaml:"path"` // SQLite file; empty disables the catalog
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	Dir    string `yaml:"dir"`
	Prefix string `yaml:"prefix"`
	YAML   bool   `yaml:"yaml"` // also write a .yaml export next to the text report
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string            `yaml:"level"`
	File  logger.FileConfig `yaml:"file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Rules: rules.DefaultSet(),
		Scan:  scan.DefaultConfig(),
		Report: ReportConfig{
			Dir:    "Saved/MeshCheck",
			Prefix: "MeshCheck",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  logger.DefaultFileConfig(""),
		},
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Rules.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("rules: %w", err))
	}
	if err := c.Scan.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("scan: %w", err))
	}
	if c.Report.Dir == "" {
		errs = append(errs, errors.New("report: dir is required"))
	}
	return errors.Join(errs...)
}
