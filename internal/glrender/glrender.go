// Package glrender draws packed RGB buffers full-screen with a single
// textured quad. One Pipeline is shared by every output; the caller makes
// the GL context current against the target surface before each Draw.
package glrender

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/go-gl/gl/v3.3-core/gl"
)

// ProcAddrFunc resolves a GL entry point, usually eglGetProcAddress.
type ProcAddrFunc func(name string) unsafe.Pointer

var ErrShader = errors.New("shader error")

type Pipeline struct {
	program uint32
	vao     uint32
	vbo     uint32
	debug   bool
}

// Two triangles covering the clip volume, interleaved as x, y, u, v.
var quadVertices = []float32{
	-1, -1, 0, 0,
	-1, 1, 0, 1,
	1, -1, 1, 0,

	1, 1, 1, 1,
	-1, 1, 0, 1,
	1, -1, 1, 0,
}

const (
	floatSize    = 4
	vertexStride = 4 * floatSize
	vertexCount  = 6
)

// The vertex shader flips y so row 0 of the buffer lands at the top.
const vertexShaderSrc = `
#version 330 core

layout (location = 0) in vec2 pos;
layout (location = 1) in vec2 in_uv;

out vec2 uv;

void main() {
	gl_Position = vec4(pos.x, -pos.y, 0.0, 1.0);
	uv = in_uv;
}
` + "\x00"

const fragmentShaderSrc = `
#version 330 core

in vec2 uv;
out vec4 color;

uniform sampler2D tex;

void main() {
	color = vec4(texture(tex, uv).rgb, 1.0);
}
` + "\x00"

// New loads GL through getProcAddr and builds the program and vertex
// state. A context must be current.
func New(getProcAddr ProcAddrFunc) (*Pipeline, error) {
	if err := gl.InitWithProcAddrFunc(getProcAddr); err != nil {
		return nil, fmt.Errorf("gl init failed: %w", err)
	}

	log.Debugf("GL renderer: %s", gl.GoStr(gl.GetString(gl.RENDERER)))
	log.Debugf("GL version: %s", gl.GoStr(gl.GetString(gl.VERSION)))
	log.Debugf("GLSL version: %s", gl.GoStr(gl.GetString(gl.SHADING_LANGUAGE_VERSION)))

	prog, err := compileProgram(vertexShaderSrc, fragmentShaderSrc)
	if err != nil {
		return nil, err
	}
	gl.UseProgram(prog)

	p := &Pipeline{
		program: prog,
		debug:   log.GetLevel() <= log.DebugLevel,
	}

	gl.GenVertexArrays(1, &p.vao)
	gl.BindVertexArray(p.vao)

	gl.GenBuffers(1, &p.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, p.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(quadVertices)*floatSize, gl.Ptr(quadVertices), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, vertexStride, 2*floatSize)
	gl.EnableVertexAttribArray(1)

	gl.Uniform1i(gl.GetUniformLocation(prog, gl.Str("tex\x00")), 0)

	// texture unit 0 stays active for the life of the context
	gl.ActiveTexture(gl.TEXTURE0)

	// rows are tightly packed RGB, not 4-byte aligned
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)

	return p, nil
}

// Draw uploads rgb as a width x height texture and draws it over the
// viewport. The caller guarantees len(rgb) == width*height*3.
func (p *Pipeline) Draw(width, height int, rgb []byte) {
	if width <= 0 || height <= 0 || len(rgb) == 0 {
		return
	}
	gl.Viewport(0, 0, int32(width), int32(height))

	tex := createTexture(width, height, rgb)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	gl.UseProgram(p.program)
	gl.BindVertexArray(p.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, vertexCount)

	if p.debug {
		if name := glErrorName(gl.GetError()); name != "" {
			log.Errorf("OpenGL error: %s", name)
		}
	}

	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.DeleteTextures(1, &tex)
}

func (p *Pipeline) Close() {
	gl.DeleteProgram(p.program)
	gl.DeleteBuffers(1, &p.vbo)
	gl.DeleteVertexArrays(1, &p.vao)
	p.program, p.vbo, p.vao = 0, 0, 0
}

func createTexture(width, height int, rgb []byte) uint32 {
	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB8,
		int32(width), int32(height), 0,
		gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(rgb))
	gl.GenerateMipmap(gl.TEXTURE_2D)
	return tex
}

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csrc, free := gl.Strs(src)
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
		msg := strings.Repeat("\x00", int(logLen+1))
		gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(msg))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("%w: compile: %s", ErrShader, strings.TrimRight(msg, "\x00"))
	}
	return shader, nil
}

func compileProgram(vsrc, fsrc string) (uint32, error) {
	vs, err := compileShader(vsrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fsrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLen int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLen)
		msg := strings.Repeat("\x00", int(logLen+1))
		gl.GetProgramInfoLog(prog, logLen, nil, gl.Str(msg))
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("%w: link: %s", ErrShader, strings.TrimRight(msg, "\x00"))
	}
	return prog, nil
}

func glErrorName(code uint32) string {
	switch code {
	case gl.NO_ERROR:
		return ""
	case gl.INVALID_ENUM:
		return "INVALID_ENUM"
	case gl.INVALID_VALUE:
		return "INVALID_VALUE"
	case gl.INVALID_OPERATION:
		return "INVALID_OPERATION"
	case gl.STACK_OVERFLOW:
		return "STACK_OVERFLOW"
	case gl.STACK_UNDERFLOW:
		return "STACK_UNDERFLOW"
	case gl.OUT_OF_MEMORY:
		return "OUT_OF_MEMORY"
	case gl.INVALID_FRAMEBUFFER_OPERATION:
		return "INVALID_FRAMEBUFFER_OPERATION"
	default:
		return fmt.Sprintf("0x%04x", code)
	}
}
