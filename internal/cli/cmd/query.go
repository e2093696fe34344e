package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/cli/cmd/utils"
	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/spf13/cobra"
)

func NewQueryCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "query",
		Short: "Show the outputs the daemon knows about",
		Long:  `Prints each output's name, size, scale and what it is currently displaying.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			infos, err := ipc.SendQuery()
			if err != nil {
				log.Fatalf("Failed to query the daemon: %v", err)
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				utils.PrintJSONColored(infos)
				return
			}
			for _, info := range infos {
				fmt.Println(info)
			}
		},
	}
	c.Flags().Bool("json", false, "Print the answer as JSON")
	return c
}
