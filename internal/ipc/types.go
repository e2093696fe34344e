package ipc

import (
	"fmt"

	"github.com/matjam/wlpaper/internal/types"
)

type RequestKind string

const (
	RequestInit      RequestKind = "init"
	RequestQuery     RequestKind = "query"
	RequestClear     RequestKind = "clear"
	RequestImg       RequestKind = "img"
	RequestAnimation RequestKind = "animation"
	RequestKill      RequestKind = "kill"
)

// Request is one decoded control request. Exactly one of the payload
// fields is set, matching Kind.
type Request struct {
	Kind      RequestKind
	Clear     *ClearRequest
	Img       *ImgRequest
	Animation *AnimationRequest
}

type ClearRequest struct {
	Color   types.Color `json:"color"`
	Outputs []string    `json:"outputs"`
}

// Transition only identifies the effect the client asked for.
type Transition struct {
	Type types.TransitionType `json:"type"`
	Step uint8                `json:"step"`
	FPS  uint16               `json:"fps"`
}

// Img is a packed RGB buffer already sized for its target outputs.
type Img struct {
	Path string `json:"path"`
	Img  []byte `json:"img"`
}

type ImgTarget struct {
	Img     Img      `json:"img"`
	Outputs []string `json:"outputs"`
}

type ImgRequest struct {
	Transition Transition  `json:"transition"`
	Imgs       []ImgTarget `json:"imgs"`
}

type Frame struct {
	Img     []byte `json:"img"`
	DelayMs uint32 `json:"delay_ms"`
}

type Animation struct {
	Frames  []Frame  `json:"frames"`
	Outputs []string `json:"outputs"`
}

type AnimationRequest struct {
	Animations []Animation `json:"animations"`
}

type AnswerKind string

const (
	AnswerOk   AnswerKind = "ok"
	AnswerInfo AnswerKind = "info"
	AnswerErr  AnswerKind = "err"
)

type Answer struct {
	Kind    AnswerKind `json:"kind"`
	Message string     `json:"message,omitempty"`
	Info    []BgInfo   `json:"info,omitempty"`
}

func Ok() Answer {
	return Answer{Kind: AnswerOk}
}

func Info(info []BgInfo) Answer {
	return Answer{Kind: AnswerInfo, Info: info}
}

func Err(format string, args ...any) Answer {
	return Answer{Kind: AnswerErr, Message: fmt.Sprintf(format, args...)}
}

// BgImg tags what an output currently shows: a solid color or an image.
type BgImg struct {
	Color *types.Color `json:"color,omitempty"`
	Path  string       `json:"path,omitempty"`
}

func ColorImg(c types.Color) BgImg {
	return BgImg{Color: &c}
}

func PathImg(path string) BgImg {
	return BgImg{Path: path}
}

func (b BgImg) IsColor() bool {
	return b.Color != nil
}

func (b BgImg) Equal(o BgImg) bool {
	if b.IsColor() != o.IsColor() {
		return false
	}
	if b.IsColor() {
		return *b.Color == *o.Color
	}
	return b.Path == o.Path
}

func (b BgImg) String() string {
	if b.Color != nil {
		return "color " + b.Color.String()
	}
	return "image " + b.Path
}

type BgInfo struct {
	Name        string `json:"name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ScaleFactor int    `json:"scale_factor"`
	Img         BgImg  `json:"img"`
}

// BufferSize is the byte length of a packed RGB buffer covering the output.
func (b BgInfo) BufferSize() int {
	return b.Width * b.Height * b.ScaleFactor * b.ScaleFactor * 3
}

func (b BgInfo) String() string {
	return fmt.Sprintf("%s: %dx%d, scale: %d, currently displaying: %s", b.Name, b.Width, b.Height, b.ScaleFactor, b.Img)
}
