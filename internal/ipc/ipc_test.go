package ipc

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matjam/wlpaper/internal/types"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

type recordingHandler struct {
	requests []Request
	answer   Answer
}

func (h *recordingHandler) HandleRequest(req Request) Answer {
	h.requests = append(h.requests, req)
	return h.answer
}

func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "wlp")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "run", socketName)
}

func TestListenerAcceptWouldBlock(t *testing.T) {
	path := socketPath(t)
	l, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	if l.Fd() < 0 {
		t.Fatal("expected a valid descriptor")
	}
	if _, err := l.Accept(); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("expected ErrWouldBlock, got %v", err)
	}

	c, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	conn, err := l.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	conn.Close()

	if _, err := l.Accept(); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("expected ErrWouldBlock after draining, got %v", err)
	}
}

func TestListenerCloseRemovesPath(t *testing.T) {
	path := socketPath(t)
	l, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected socket to exist: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected socket to be removed, got %v", err)
	}
	// second close is a no-op
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestListenerAlreadyRunning(t *testing.T) {
	path := socketPath(t)
	l, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	if _, err := Listen(path); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestListenerRemovesStaleSocket(t *testing.T) {
	path := socketPath(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	l, err := Listen(path)
	if err != nil {
		t.Fatalf("expected stale socket to be replaced, got %v", err)
	}
	l.Close()
}

func TestListenInvalidPath(t *testing.T) {
	if _, err := Listen("wlpaper.sock"); err == nil {
		t.Fatal("expected error for path without a directory")
	}
}

func exchange(t *testing.T, srv *Server, req *http.Request) (*http.Response, Answer) {
	t.Helper()
	server, client := net.Pipe()
	done := make(chan struct{})
	go func() {
		srv.Serve(server)
		close(done)
	}()

	if err := req.Write(client); err != nil {
		t.Fatalf("write request: %v", err)
	}
	res, err := http.ReadResponse(bufio.NewReader(client), req)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	defer res.Body.Close()

	var a Answer
	if err := json.NewDecoder(res.Body).Decode(&a); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	client.Close()
	<-done
	return res, a
}

func TestServerClear(t *testing.T) {
	h := &recordingHandler{answer: Ok()}
	srv := NewServer(h, time.Second)

	body, _ := json.Marshal(ClearRequest{Color: types.Color{255, 0, 0}, Outputs: []string{"DP-1"}})
	req, _ := http.NewRequest(http.MethodPost, "http://wlpaper/clear", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	res, a := exchange(t, srv, req)
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", res.StatusCode)
	}
	if a.Kind != AnswerOk {
		t.Errorf("expected ok answer, got %+v", a)
	}
	if res.Header.Get("X-Request-Id") == "" {
		t.Error("expected a request id header")
	}
	if len(h.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(h.requests))
	}
	got := h.requests[0]
	if got.Kind != RequestClear || got.Clear == nil {
		t.Fatalf("unexpected request %+v", got)
	}
	if got.Clear.Color != (types.Color{255, 0, 0}) || len(got.Clear.Outputs) != 1 || got.Clear.Outputs[0] != "DP-1" {
		t.Errorf("unexpected clear payload %+v", got.Clear)
	}
}

func TestServerErrAnswer(t *testing.T) {
	h := &recordingHandler{answer: Err("Not implemented")}
	srv := NewServer(h, time.Second)

	req, _ := http.NewRequest(http.MethodPost, "http://wlpaper/animation", bytes.NewReader([]byte(`{"animations":[]}`)))
	req.Header.Set("Content-Type", "application/json")

	res, a := exchange(t, srv, req)
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", res.StatusCode)
	}
	if a.Kind != AnswerErr || a.Message != "Not implemented" {
		t.Errorf("unexpected answer %+v", a)
	}
}

func TestServerMalformedBody(t *testing.T) {
	h := &recordingHandler{answer: Ok()}
	srv := NewServer(h, time.Second)

	req, _ := http.NewRequest(http.MethodPost, "http://wlpaper/img", bytes.NewReader([]byte(`{"imgs": 12`)))
	req.Header.Set("Content-Type", "application/json")

	res, a := exchange(t, srv, req)
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", res.StatusCode)
	}
	if a.Kind != AnswerErr {
		t.Errorf("expected err answer, got %+v", a)
	}
	if len(h.requests) != 0 {
		t.Errorf("handler must not see malformed requests, got %d", len(h.requests))
	}
}

func TestServerUnknownRoute(t *testing.T) {
	srv := NewServer(&recordingHandler{answer: Ok()}, time.Second)
	req, _ := http.NewRequest(http.MethodGet, "http://wlpaper/nope", nil)

	res, a := exchange(t, srv, req)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", res.StatusCode)
	}
	if a.Kind != AnswerErr {
		t.Errorf("expected err answer, got %+v", a)
	}
}

func TestServerGarbageFraming(t *testing.T) {
	srv := NewServer(&recordingHandler{answer: Ok()}, time.Second)
	server, client := net.Pipe()
	go srv.Serve(server)

	go client.Write([]byte("this is not http\r\n\r\n"))
	res, err := http.ReadResponse(bufio.NewReader(client), nil)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", res.StatusCode)
	}
	var a Answer
	if err := json.NewDecoder(res.Body).Decode(&a); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if a.Kind != AnswerErr {
		t.Errorf("expected err answer, got %+v", a)
	}
	client.Close()
}

func TestClientRoundTrip(t *testing.T) {
	path := socketPath(t)
	l, err := Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	info := []BgInfo{{Name: "DP-1", Width: 1920, Height: 1080, ScaleFactor: 1, Img: ColorImg(types.Black)}}
	h := &recordingHandler{answer: Info(info)}
	srv := NewServer(h, time.Second)

	go func() {
		fds := []unix.PollFd{{Fd: int32(l.Fd()), Events: unix.POLLIN}}
		for {
			if _, err := unix.Poll(fds, 2000); err != nil && !errors.Is(err, unix.EINTR) {
				return
			}
			conn, err := l.Accept()
			if errors.Is(err, ErrWouldBlock) {
				continue
			}
			if err != nil {
				return
			}
			srv.Serve(conn)
			return
		}
	}()

	c := NewClient(path)
	defer c.Close()
	a, err := c.Send(Request{Kind: RequestQuery})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if a.Kind != AnswerInfo || len(a.Info) != 1 {
		t.Fatalf("unexpected answer %+v", a)
	}
	if a.Info[0].Name != "DP-1" || !a.Info[0].Img.Equal(ColorImg(types.Black)) {
		t.Errorf("unexpected info %+v", a.Info[0])
	}
}

func TestBgImgString(t *testing.T) {
	if s := ColorImg(types.Color{255, 0, 0}).String(); s != "color ff0000" {
		t.Errorf("unexpected %q", s)
	}
	if s := PathImg("/tmp/a.png").String(); s != "image /tmp/a.png" {
		t.Errorf("unexpected %q", s)
	}
	if ColorImg(types.Black).Equal(PathImg("")) {
		t.Error("color and path tags must differ")
	}
}

func TestBgInfoBufferSize(t *testing.T) {
	b := BgInfo{Width: 100, Height: 50, ScaleFactor: 2}
	if got := b.BufferSize(); got != 100*50*4*3 {
		t.Errorf("unexpected buffer size %d", got)
	}
}

func TestSocketPath(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := SocketPath(); got != "/run/user/1000/wlpaper.sock" {
		t.Errorf("unexpected socket path %q", got)
	}
}

func TestSocketPathFromConfig(t *testing.T) {
	t.Setenv("HOME", "/home/me")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	defer viper.Set("socket", "")

	tests := []struct {
		socket, want string
	}{
		{"", "/run/user/1000/wlpaper.sock"},
		{"/tmp/wlp.sock", "/tmp/wlp.sock"},
		{"~/.wlpaper.sock", "/home/me/.wlpaper.sock"},
	}
	for _, tt := range tests {
		t.Run(tt.socket, func(t *testing.T) {
			viper.Set("socket", tt.socket)
			if got := SocketPath(); got != tt.want {
				t.Errorf("SocketPath() = %q, want %q", got, tt.want)
			}
		})
	}
}
