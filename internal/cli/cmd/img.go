package cmd

import (
	"fmt"
	"math"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/cache"
	"github.com/matjam/wlpaper/internal/cli/cmd/utils"
	"github.com/matjam/wlpaper/internal/imgproc"
	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/matjam/wlpaper/internal/types"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewImgCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "img <path>",
		Short: "Display an image",
		Long: `Decodes the image, resizes it once for each distinct output size and sends
it to the daemon. Use "-" to read the image from stdin.`,
		Args: cobra.ExactArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			viper.BindPFlag("no_resize", cmd.Flags().Lookup("no-resize"))
			viper.BindPFlag("fill_color", cmd.Flags().Lookup("fill-color"))
			viper.BindPFlag("resize_filter", cmd.Flags().Lookup("filter"))
			viper.BindPFlag("transition_type", cmd.Flags().Lookup("transition-type"))
			viper.BindPFlag("transition_step", cmd.Flags().Lookup("transition-step"))
			viper.BindPFlag("transition_fps", cmd.Flags().Lookup("transition-fps"))
		},
		Run: func(cmd *cobra.Command, args []string) {
			opts, transition, err := imageOptions()
			if err != nil {
				log.Fatalf("%v", err)
			}
			names, _ := cmd.Flags().GetStringSlice("outputs")

			infos, err := ipc.SendQuery()
			if err != nil {
				log.Fatalf("Failed to query the daemon: %v", err)
			}
			targets := selectOutputs(infos, names)
			if len(targets) == 0 {
				log.Fatalf("None of the requested outputs exist")
			}

			if err := sendImage(args[0], targets, opts, transition); err != nil {
				log.Fatalf("%v", err)
			}
		},
	}

	c.Flags().StringSliceP("outputs", "o", nil, "Comma separated outputs to change (default all)")
	c.Flags().Bool("no-resize", false, "Center the image at its own size instead of resizing it")
	c.Flags().String("fill-color", "000000", "Padding color used with --no-resize")
	c.Flags().String("filter", string(types.FilterCatmullRom), "Resize filter: nearest, bilinear, catmull-rom")
	c.Flags().String("transition-type", string(types.TransitionSimple), "Transition: none, simple, wipe, grow, outer, random")
	c.Flags().Uint8("transition-step", 20, "Transition step")
	c.Flags().Uint16("transition-fps", 30, "Transition frame rate")
	return c
}

// imageOptions reads the client side image settings from the config.
func imageOptions() (imgproc.Options, ipc.Transition, error) {
	filter := types.ResizeFilter(viper.GetString("resize_filter"))
	if !filter.Valid() {
		return imgproc.Options{}, ipc.Transition{}, fmt.Errorf("unknown resize filter %q", filter)
	}
	fill, err := types.ParseColor(viper.GetString("fill_color"))
	if err != nil {
		return imgproc.Options{}, ipc.Transition{}, fmt.Errorf("invalid fill color: %w", err)
	}
	tt := types.TransitionType(viper.GetString("transition_type"))
	if !tt.Valid() {
		return imgproc.Options{}, ipc.Transition{}, fmt.Errorf("unknown transition type %q", tt)
	}

	step := viper.GetInt("transition_step")
	if step < 0 || step > math.MaxUint8 {
		return imgproc.Options{}, ipc.Transition{}, fmt.Errorf("transition_step %d is out of range 0-%d", step, math.MaxUint8)
	}
	fps := viper.GetInt("transition_fps")
	if fps < 0 || fps > math.MaxUint16 {
		return imgproc.Options{}, ipc.Transition{}, fmt.Errorf("transition_fps %d is out of range 0-%d", fps, math.MaxUint16)
	}

	opts := imgproc.Options{
		Filter:    filter,
		NoResize:  viper.GetBool("no_resize"),
		FillColor: fill,
	}
	transition := ipc.Transition{
		Type: tt,
		Step: uint8(step),
		FPS:  uint16(fps),
	}
	return opts, transition, nil
}

// selectOutputs keeps the outputs named in names, or all of them when
// names is empty.
func selectOutputs(infos []ipc.BgInfo, names []string) []ipc.BgInfo {
	if len(names) == 0 {
		return infos
	}
	var out []ipc.BgInfo
	for _, info := range infos {
		if slices.Contains(names, info.Name) {
			out = append(out, info)
		}
	}
	return out
}

// outputGroup is a set of outputs sharing one buffer size, so the image
// is resized once for all of them.
type outputGroup struct {
	Width  int
	Height int
	Names  []string
}

func groupBySize(infos []ipc.BgInfo) []outputGroup {
	var groups []outputGroup
	for _, info := range infos {
		w, h := info.Width*info.ScaleFactor, info.Height*info.ScaleFactor
		i := slices.IndexFunc(groups, func(g outputGroup) bool {
			return g.Width == w && g.Height == h
		})
		if i < 0 {
			groups = append(groups, outputGroup{Width: w, Height: h})
			i = len(groups) - 1
		}
		groups[i].Names = append(groups[i].Names, info.Name)
	}
	return groups
}

func sendImage(path string, targets []ipc.BgInfo, opts imgproc.Options, transition ipc.Transition) error {
	path = utils.CanonicalPath(path)
	src, err := imgproc.Read(path)
	if err != nil {
		return err
	}
	if path != "-" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	groups := groupBySize(targets)
	req := &ipc.ImgRequest{Transition: transition}
	for _, g := range groups {
		req.Imgs = append(req.Imgs, ipc.ImgTarget{
			Img:     ipc.Img{Path: path, Img: imgproc.Process(src.Image, g.Width, g.Height, opts)},
			Outputs: g.Names,
		})
	}

	if _, err := ipc.SendRequest(ipc.Request{Kind: ipc.RequestImg, Img: req}); err != nil {
		return fmt.Errorf("failed to send 'img' command: %w", err)
	}

	if path != "-" {
		for _, info := range targets {
			if err := cache.Store(info.Name, path); err != nil {
				log.Warnf("Failed to cache image for %s: %v", info.Name, err)
			}
		}
	}

	if src.Animated() {
		sendAnimation(src, groups, opts)
	}
	return nil
}

// sendAnimation is best effort: the still image is already showing.
func sendAnimation(src *imgproc.Source, groups []outputGroup, opts imgproc.Options) {
	req := &ipc.AnimationRequest{}
	for _, g := range groups {
		frames, err := imgproc.Frames(src.Raw, g.Width, g.Height, opts)
		if err != nil {
			log.Warnf("Failed to decode animation: %v", err)
			return
		}
		if len(frames) < 2 {
			return
		}
		req.Animations = append(req.Animations, ipc.Animation{Frames: frames, Outputs: g.Names})
	}

	if _, err := ipc.SendRequest(ipc.Request{Kind: ipc.RequestAnimation, Animation: req}); err != nil {
		log.Warnf("Animation not played: %v", err)
	}
}
