package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/cli/cmd/utils"
	"github.com/matjam/wlpaper/internal/daemon"
	"github.com/matjam/wlpaper/internal/glrender"
	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/matjam/wlpaper/internal/wlclient"
	godaemon "github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewDaemonCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "daemon",
		Short: "Start the wallpaper daemon",
		Long: `Connects to the Wayland compositor, puts a background surface on every
output and serves control requests on the control socket until it is
killed or receives SIGINT, SIGQUIT or SIGTERM.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			background, _ := cmd.Flags().GetBool("background")
			os.Exit(startDaemon(background))
		},
	}
	c.Flags().BoolP("background", "b", false, "Run detached, logging to ~/.local/share/wlpaper")
	return c
}

// startDaemon returns the process exit code. Every deferred cleanup has
// run by the time it returns.
func startDaemon(background bool) int {
	if background {
		if err := os.MkdirAll(utils.LogDir(), 0755); err != nil {
			log.Errorf("Failed to create %s: %v", utils.LogDir(), err)
			return 1
		}
		ctx := &godaemon.Context{
			PidFileName: filepath.Join(utils.LogDir(), "wlpaper.pid"),
			PidFilePerm: 0644,
			WorkDir:     "/",
			Umask:       027,
		}
		child, err := ctx.Reborn()
		if err != nil {
			log.Errorf("Failed to start in the background: %v", err)
			return 1
		}
		if child != nil {
			log.Infof("wlpaper daemon started in the background as PID %d", child.Pid)
			return 0
		}
		defer ctx.Release()

		if err := utils.SetupRotatingLogger(); err != nil {
			log.Errorf("Failed to configure log rotation: %v", err)
			return 1
		}
	}

	if err := RunDaemon(); err != nil {
		log.Errorf("%v", err)
		return 1
	}
	log.Infof("wlpaper exited")
	return 0
}

// RunDaemon sets up the control socket, the compositor session and the
// GL pipeline, then runs the main loop until shutdown.
func RunDaemon() error {
	log.Infof("wlpaper daemon started in PID: %d", os.Getpid())

	timeout := viper.GetDuration("ipc_timeout")
	if timeout <= 0 {
		return fmt.Errorf("invalid ipc_timeout %q", viper.GetString("ipc_timeout"))
	}

	listener, err := ipc.Listen(ipc.SocketPath())
	if err != nil {
		return err
	}
	defer listener.Close()

	shutdown, err := daemon.NewShutdown()
	if err != nil {
		return err
	}
	defer shutdown.Close()
	stopSignals := shutdown.HandleSignals()
	defer stopSignals()

	session, err := wlclient.Connect(viper.GetString("namespace"))
	if err != nil {
		return err
	}
	defer session.Close()

	pipeline, err := glrender.New(session.GetProcAddress)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	d := daemon.New(session, pipeline, shutdown, daemon.Config{
		DefaultWidth:  viper.GetInt("default_width"),
		DefaultHeight: viper.GetInt("default_height"),
	})
	server := ipc.NewServer(d, timeout)

	log.Infof("Listening on %s", listener.Path())
	return daemon.NewLoop(session, d, listener, server, shutdown).Run()
}
