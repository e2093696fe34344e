package cmd

import (
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/spf13/cobra"
)

func NewKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill",
		Short: "Stop the wlpaper daemon",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if err := ipc.SendKill(); err != nil {
				log.Fatalf("Failed to send 'kill' command: %v", err)
			}
			if !waitForRemoval(ipc.SocketPath(), time.Second) {
				log.Warnf("Daemon accepted the kill request but %s still exists", ipc.SocketPath())
				return
			}
			log.Info("wlpaper daemon stopped")
		},
	}
}

// waitForRemoval polls until path no longer exists or timeout passes.
func waitForRemoval(path string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}
