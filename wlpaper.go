package wlpaper

import (
	_ "embed"
)

//go:embed VERSION
var Version string

//go:embed wlpaper.toml
var DefaultConfig string
