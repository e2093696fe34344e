package cmd

import (
	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/cache"
	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "init",
		Short: "Check that the daemon is running",
		Long: `Sends a liveness probe to the daemon. With --restore, every output is
given back the last image sent to it with the img command.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := ipc.SendInit(); err != nil {
				log.Fatalf("Failed to reach the daemon: %v", err)
			}
			if restore, _ := cmd.Flags().GetBool("restore"); restore {
				if err := restoreCached(); err != nil {
					log.Fatalf("Failed to restore wallpapers: %v", err)
				}
			}
		},
	}
	c.Flags().Bool("restore", false, "Restore the cached image on every output")
	return c
}

func restoreCached() error {
	infos, err := ipc.SendQuery()
	if err != nil {
		return err
	}
	opts, transition, err := imageOptions()
	if err != nil {
		return err
	}

	for _, info := range infos {
		path, err := cache.Load(info.Name)
		if err != nil {
			log.Warnf("Failed to read cache for %s: %v", info.Name, err)
			continue
		}
		if path == "" {
			continue
		}
		log.Infof("Restoring %s on %s", path, info.Name)
		if err := sendImage(path, []ipc.BgInfo{info}, opts, transition); err != nil {
			log.Warnf("Failed to restore %s: %v", info.Name, err)
		}
	}
	return nil
}
