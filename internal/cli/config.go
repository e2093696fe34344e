package cli

import (
	"errors"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func InitConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wlpaper")
		viper.SetConfigType("toml")
		viper.AddConfigPath("$HOME/.config/wlpaper")
		viper.AddConfigPath("/etc/xdg/wlpaper")
	}

	viper.SetDefault("debug", false)
	viper.SetDefault("socket", "")
	viper.SetDefault("namespace", "wlpaper")
	viper.SetDefault("default_width", 256)
	viper.SetDefault("default_height", 256)
	viper.SetDefault("ipc_timeout", "5s")
	viper.SetDefault("resize_filter", "catmull-rom")
	viper.SetDefault("no_resize", false)
	viper.SetDefault("fill_color", "000000")
	viper.SetDefault("transition_type", "simple")
	viper.SetDefault("transition_step", 20)
	viper.SetDefault("transition_fps", 30)

	viper.SetEnvPrefix("wlpaper")
	viper.AutomaticEnv() // read environment variables that match

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		log.Debug("No config file found, using defaults")
		err = nil
	}
	cobra.CheckErr(err)

	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
}
