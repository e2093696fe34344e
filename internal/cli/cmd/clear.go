package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/matjam/wlpaper/internal/types"
	"github.com/spf13/cobra"
)

func NewClearCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "clear [RRGGBB]",
		Short: "Fill outputs with a solid color",
		Long:  `Fills the selected outputs (all of them by default) with a color, black if none is given.`,
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			color := types.Black
			if len(args) == 1 {
				var err error
				if color, err = types.ParseColor(args[0]); err != nil {
					log.Fatalf("Invalid color: %v", err)
				}
			}
			outputs, _ := cmd.Flags().GetStringSlice("outputs")

			_, err := ipc.SendRequest(ipc.Request{
				Kind:  ipc.RequestClear,
				Clear: &ipc.ClearRequest{Color: color, Outputs: outputs},
			})
			if err != nil {
				log.Fatalf("Failed to send 'clear' command: %v", err)
			}
			log.Debugf("Cleared to %s", color)
		},
	}
	c.Flags().StringSliceP("outputs", "o", nil, "Comma separated outputs to change (default all)")
	return c
}
