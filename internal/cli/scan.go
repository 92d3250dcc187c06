package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/Faultbox/meshadvisor/internal/logger"
	"github.com/Faultbox/meshadvisor/internal/report"
	"github.com/Faultbox/meshadvisor/internal/scan"
)

func newScanCommand(o *options) *cobra.Command {
	var noProgress bool
	cmd := &cobra.Command{
		Use:   "scan [descriptor...]",
		Short: "Check meshes and placed components against the rules",
		Example: `  # Report issues in two descriptor files
  meshadvisor scan props.yaml level01.yaml

  # Apply the recommended settings to everything in the catalog
  meshadvisor scan --fix --store assets.db

  # Check screen sizes as seen by the Mobile platform group
  meshadvisor scan --platform Mobile props.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runScan(cmd, args, noProgress)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&o.overrides.Fix, "fix", false, "apply the recommended settings")
	f.StringVar(&o.overrides.Platform, "platform", "", "platform group used for screen size checks")
	f.StringVar(&o.overrides.StorePath, "store", "", "SQLite asset catalog to scan and update")
	f.StringVar(&o.overrides.ReportDir, "report-dir", "", "directory for the report file")
	f.BoolVar(&noProgress, "no-progress", false, "do not draw a progress bar")
	return cmd
}

func (o *options) runScan(cmd *cobra.Command, args []string, noProgress bool) error {
	cfg := o.cfg
	if len(args) == 0 && cfg.Store.Path == "" {
		return errors.New("nothing to scan: pass descriptor files or --store")
	}

	ctx := cmd.Context()
	in, err := loadInputs(ctx, cfg.Store.Path, args)
	if err != nil {
		return err
	}
	defer in.Close()

	var opts []scan.Option
	if !noProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		opts = append(opts, scan.WithProgress(cmd.ErrOrStderr()))
	}
	res, runErr := scan.New(cfg.Scan, cfg.Rules, opts...).Run(ctx, in.meshes, in.comps)
	if res == nil {
		return runErr
	}

	path, err := report.NewWriter(cfg.Report.Dir, cfg.Report.Prefix).Write(res)
	if err != nil {
		logger.Error("report not written", zap.String("dir", cfg.Report.Dir), zap.Error(err))
		return errors.Join(runErr, err)
	}
	if cfg.Report.YAML {
		if err := writeYAMLReport(strings.TrimSuffix(path, ".txt")+".yaml", res); err != nil {
			logger.Error("yaml report not written", zap.String("path", path), zap.Error(err))
			return errors.Join(runErr, err)
		}
	}
	logger.Sugar.Infof("report written to %s (%d diagnostics)", path, len(res.Diagnostics))

	open := res.Open()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d meshes, %d components, %d skipped, %d failed\n",
		res.Meshes, res.Components, res.Skipped, res.Failed)
	fmt.Fprintf(out, "%d open issues, %d fixes applied\n", len(open), len(res.Diagnostics)-len(open))
	fmt.Fprintf(out, "report: %s\n", path)
	return runErr
}

func writeYAMLReport(path string, res *scan.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteYAML(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
