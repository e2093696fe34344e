package wlclient

import (
	"fmt"
	"testing"
)

func TestLogicalSize(t *testing.T) {
	tests := []struct {
		modeW, modeH, scale, transform int
		wantW, wantH                   int
	}{
		{1920, 1080, 1, 0, 1920, 1080},
		{3840, 2160, 2, 0, 1920, 1080},
		{3840, 2160, 3, 0, 1280, 720},
		{1920, 1080, 1, transform90, 1080, 1920},
		{1920, 1080, 1, transform270, 1080, 1920},
		{1920, 1080, 1, transformFlipped90, 1080, 1920},
		{1920, 1080, 1, transformFlipped270, 1080, 1920},
		{1920, 1080, 1, 2, 1920, 1080},
		{1920, 1080, 0, 0, 1920, 1080},
		{0, 0, 1, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%dx%d@%d/t%d", tt.modeW, tt.modeH, tt.scale, tt.transform), func(t *testing.T) {
			w, h := logicalSize(tt.modeW, tt.modeH, tt.scale, tt.transform)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("logicalSize = %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}
