package config

import "github.com/Faultbox/meshadvisor/internal/scan"

// Overrides are command-line values that win over the config file.
// Zero values leave the loaded setting untouched.
type Overrides struct {
	ConfigPath string
	Debug      bool
	Fix        bool
	Platform   string
	StorePath  string
	ReportDir  string
}

// applyOverrides applies CLI overrides to the config.
func applyOverrides(cfg *Config, o Overrides) {
	if o.Debug {
		cfg.Logging.Level = "debug"
	}
	if o.Fix {
		cfg.Scan.Mode = scan.ModeFix
	}
	if o.Platform != "" {
		cfg.Rules.Static.TargetPlatform = o.Platform
		cfg.Rules.Skeletal.TargetPlatform = o.Platform
	}
	if o.StorePath != "" {
		cfg.Store.Path = o.StorePath
	}
	if o.ReportDir != "" {
		cfg.Report.Dir = o.ReportDir
	}
}
