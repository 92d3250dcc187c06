// Package cli wires the meshadvisor commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/meshadvisor/internal/config"
	"github.com/Faultbox/meshadvisor/internal/logger"
)

// options is the state shared by every command. Flags write into
// overrides; the loaded config is available once PersistentPreRunE ran.
type options struct {
	overrides config.Overrides
	cfg       *config.Config
}

func (o *options) load() error {
	cfg, err := config.Load(o.overrides)
	if err != nil {
		return err
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, cfg.Logging.File, true); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Debug("config loaded", zap.String("level", cfg.Logging.Level), zap.String("store", cfg.Store.Path))
	o.cfg = cfg
	return nil
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	o := &options{}
	root := &cobra.Command{
		Use:   "meshadvisor",
		Short: "Check mesh LOD and cull settings against a rule set",
		Long: `meshadvisor inspects mesh LOD chains and placed mesh instances, reports
settings that break the configured rules and can apply the recommended
triangle budgets, LOD counts and screen sizes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&o.overrides.ConfigPath, "config", "", "config file (default is ./"+config.FileName+")")
	root.PersistentFlags().BoolVar(&o.overrides.Debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newScanCommand(o),
		newRulesCommand(o),
		newCullCommand(o),
		newImportCommand(o),
	)
	return root
}

// Execute runs the command tree until ctx ends.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
