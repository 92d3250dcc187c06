package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newCullCommand(o *options) *cobra.Command {
	var radius, screenSize, distance float32
	cmd := &cobra.Command{
		Use:   "cull",
		Short: "Convert between bounds radius, screen size and draw distance",
		Example: `  # Distance at which a 100 unit sphere shrinks to the configured cull size
  meshadvisor cull --radius 100

  # Screen size of the same sphere 4000 units away
  meshadvisor cull --radius 100 --distance 4000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if radius <= 0 {
				return errors.New("--radius must be positive")
			}
			proj := o.cfg.Rules.Static.Projection
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("distance") {
				fmt.Fprintf(out, "screen size: %.4f\n", proj.ScreenSize(radius, distance))
				return nil
			}
			if !cmd.Flags().Changed("screen-size") {
				screenSize = o.cfg.Rules.Static.CullScreenSize
			}
			fmt.Fprintf(out, "draw distance: %.1f\n", proj.DrawDistance(radius, screenSize))
			return nil
		},
	}
	f := cmd.Flags()
	f.Float32Var(&radius, "radius", 0, "world bounding sphere radius")
	f.Float32Var(&screenSize, "screen-size", 0, "screen size to solve for (default is the configured cull screen size)")
	f.Float32Var(&distance, "distance", 0, "report the screen size at this distance instead")
	return cmd
}
