package cli

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshadvisor/internal/asset"
)

func newRulesCommand(o *options) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the effective rule set as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var v any = o.cfg.Rules
			if kind != "" {
				k, err := asset.ParseKind(kind)
				if err != nil {
					return err
				}
				v = o.cfg.Rules.For(k)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(v); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "print only the rules for this mesh kind (static or skeletal)")
	return cmd
}
