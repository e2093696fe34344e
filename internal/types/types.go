package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Color is an RGB triple in the channel order the renderer uploads.
type Color [3]uint8

var Black = Color{0, 0, 0}

// ParseColor accepts "RRGGBB" with an optional leading '#'.
func ParseColor(s string) (Color, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return Color{}, fmt.Errorf("color %q must be 6 hex digits", s)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Color{}, fmt.Errorf("color %q: %w", s, err)
	}
	return Color{b[0], b[1], b[2]}, nil
}

func (c Color) String() string {
	return hex.EncodeToString(c[:])
}

type ResizeFilter string

const (
	FilterNearest    ResizeFilter = "nearest"
	FilterBilinear   ResizeFilter = "bilinear"
	FilterCatmullRom ResizeFilter = "catmull-rom"
)

func (f ResizeFilter) Valid() bool {
	switch f {
	case FilterNearest, FilterBilinear, FilterCatmullRom:
		return true
	}
	return false
}

type TransitionType string

const (
	TransitionNone   TransitionType = "none"
	TransitionSimple TransitionType = "simple"
	TransitionWipe   TransitionType = "wipe"
	TransitionGrow   TransitionType = "grow"
	TransitionOuter  TransitionType = "outer"
	TransitionRandom TransitionType = "random"
)

func (t TransitionType) Valid() bool {
	switch t {
	case TransitionNone, TransitionSimple, TransitionWipe, TransitionGrow, TransitionOuter, TransitionRandom:
		return true
	}
	return false
}
