package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/meshadvisor/internal/logger"
)

func newImportCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import descriptor...",
		Short: "Load mesh descriptors into the asset catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := o.cfg.Store.Path
			if path == "" {
				return errors.New("no catalog: pass --store or set store.path")
			}
			docs, err := loadDocuments(args)
			if err != nil {
				return err
			}
			st, err := openStore(path)
			if err != nil {
				return err
			}
			defer st.Close()

			n, failed := importDocuments(cmd.Context(), st, docs)
			logger.Info("descriptors imported", zap.Int("meshes", n), zap.Int("rejected", len(failed)), zap.String("store", path))
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d meshes into %s\n", n, path)
			if len(failed) > 0 {
				return fmt.Errorf("%d meshes rejected", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&o.overrides.StorePath, "store", "", "SQLite asset catalog")
	return cmd
}
