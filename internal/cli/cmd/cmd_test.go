package cmd

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/matjam/wlpaper/internal/types"
	"github.com/spf13/viper"
)

var outputs = []ipc.BgInfo{
	{Name: "DP-1", Width: 1920, Height: 1080, ScaleFactor: 1},
	{Name: "DP-2", Width: 960, Height: 540, ScaleFactor: 2},
	{Name: "HDMI-A-1", Width: 1280, Height: 1024, ScaleFactor: 1},
	{Name: "DP-3", Width: 1920, Height: 1080, ScaleFactor: 1},
}

func TestSelectOutputs(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  []string
	}{
		{"empty selects all", nil, []string{"DP-1", "DP-2", "HDMI-A-1", "DP-3"}},
		{"subset", []string{"DP-3", "DP-1"}, []string{"DP-1", "DP-3"}},
		{"unknown dropped", []string{"eDP-1", "DP-2"}, []string{"DP-2"}},
		{"none", []string{"eDP-1"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, info := range selectOutputs(outputs, tt.names) {
				got = append(got, info.Name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGroupBySize(t *testing.T) {
	groups := groupBySize(outputs)
	want := []outputGroup{
		{Width: 1920, Height: 1080, Names: []string{"DP-1", "DP-2", "DP-3"}},
		{Width: 1280, Height: 1024, Names: []string{"HDMI-A-1"}},
	}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("got %+v, want %+v", groups, want)
	}

	for _, g := range groups {
		for _, name := range g.Names {
			for _, info := range outputs {
				if info.Name == name && info.BufferSize() != g.Width*g.Height*3 {
					t.Errorf("%s: group size does not match its buffer size", name)
				}
			}
		}
	}
}

func TestImageOptions(t *testing.T) {
	tests := []struct {
		name     string
		set      map[string]any
		wantErr  bool
		wantStep uint8
		wantFPS  uint16
	}{
		{"defaults", nil, false, 90, 60},
		{"bad filter", map[string]any{"resize_filter": "lanczos9"}, true, 0, 0},
		{"bad color", map[string]any{"fill_color": "zz0000"}, true, 0, 0},
		{"bad transition", map[string]any{"transition_type": "spin"}, true, 0, 0},
		{"step too large", map[string]any{"transition_step": 256}, true, 0, 0},
		{"negative step", map[string]any{"transition_step": -1}, true, 0, 0},
		{"fps too large", map[string]any{"transition_fps": 70000}, true, 0, 0},
		{"largest values", map[string]any{"transition_step": 255, "transition_fps": 65535}, false, 255, 65535},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			viper.SetDefault("resize_filter", "catmull-rom")
			viper.SetDefault("fill_color", "102030")
			viper.SetDefault("transition_type", "wipe")
			viper.SetDefault("transition_step", 90)
			viper.SetDefault("transition_fps", 60)
			for k, v := range tt.set {
				viper.Set(k, v)
			}

			opts, tr, err := imageOptions()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if opts.Filter != types.FilterCatmullRom || opts.FillColor != (types.Color{0x10, 0x20, 0x30}) {
				t.Errorf("unexpected options %+v", opts)
			}
			if tr.Type != types.TransitionWipe || tr.Step != tt.wantStep || tr.FPS != tt.wantFPS {
				t.Errorf("unexpected transition %+v", tr)
			}
		})
	}
	viper.Reset()
}

func TestWaitForRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wlpaper.sock")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if waitForRemoval(path, 30*time.Millisecond) {
		t.Fatal("file still exists, expected timeout")
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		os.Remove(path)
	}()
	if !waitForRemoval(path, time.Second) {
		t.Fatal("expected removal to be observed")
	}
}
