package daemon

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matjam/wlpaper/internal/compositor"
	"github.com/matjam/wlpaper/internal/ipc"
	"github.com/matjam/wlpaper/internal/types"
	"golang.org/x/sys/unix"
)

type fakeAcceptor struct {
	fd      int
	accepts int
	err     error
}

func (a *fakeAcceptor) Fd() int { return a.fd }
func (a *fakeAcceptor) Accept() (net.Conn, error) {
	a.accepts++
	return nil, a.err
}

type fakeServer struct {
	served int
}

func (s *fakeServer) Serve(conn net.Conn) { s.served++ }

func runWithTimeout(t *testing.T, l *Loop) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- l.Run() }()
	select {
	case err := <-done:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("loop did not stop")
		return nil
	}
}

func TestLoopShutdownBeforeFirstIteration(t *testing.T) {
	d, session, pipeline := newTestDaemon(t)
	session.events = []compositor.Event{compositor.OutputAnnounced{Output: dp1}}
	acceptor := &fakeAcceptor{fd: pipeFd(t)}
	server := &fakeServer{}

	d.shutdown.Request()
	l := NewLoop(session, d, acceptor, server, d.shutdown)
	if err := runWithTimeout(t, l); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if pipeline.draws != 0 || acceptor.accepts != 0 || server.served != 0 || session.flushes != 0 {
		t.Errorf("expected no work, got draws=%d accepts=%d served=%d flushes=%d",
			pipeline.draws, acceptor.accepts, server.served, session.flushes)
	}
}

func TestLoopFlushFailureIsFatal(t *testing.T) {
	d, session, _ := newTestDaemon(t)
	session.flushErr = errors.New("broken pipe")
	l := NewLoop(session, d, &fakeAcceptor{fd: pipeFd(t)}, &fakeServer{}, d.shutdown)

	if err := runWithTimeout(t, l); err == nil {
		t.Fatal("expected a fatal error")
	}
}

func TestLoopAcceptFailureIsFatal(t *testing.T) {
	d, session, _ := newTestDaemon(t)

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	defer unix.Close(p[0])
	defer unix.Close(p[1])
	unix.Write(p[1], []byte{1})

	acceptor := &fakeAcceptor{fd: p[0], err: errors.New("too many open files")}
	l := NewLoop(session, d, acceptor, &fakeServer{}, d.shutdown)
	if err := runWithTimeout(t, l); err == nil {
		t.Fatal("expected a fatal error")
	}
	if acceptor.accepts != 1 {
		t.Errorf("expected 1 accept, got %d", acceptor.accepts)
	}
}

func TestLoopWouldBlockIsNotFatal(t *testing.T) {
	d, session, _ := newTestDaemon(t)

	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	defer unix.Close(p[0])
	defer unix.Close(p[1])
	unix.Write(p[1], []byte{1})

	acceptor := &fakeAcceptor{fd: p[0], err: ipc.ErrWouldBlock}
	l := NewLoop(session, d, acceptor, &fakeServer{}, d.shutdown)
	for i := 0; i < 3; i++ {
		if err := l.iterate(); err != nil {
			t.Fatalf("iterate: %v", err)
		}
	}
	if acceptor.accepts != 3 {
		t.Errorf("expected 3 accepts, got %d", acceptor.accepts)
	}
}

func TestShutdownWakesPoll(t *testing.T) {
	s := newShutdown(t)
	go func() {
		time.Sleep(20 * time.Millisecond)
		s.Request()
	}()

	fds := []unix.PollFd{{Fd: int32(s.Fd()), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, 5000)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil || n != 1 {
			t.Fatalf("poll: n=%d err=%v", n, err)
		}
		break
	}
	if !s.Requested() {
		t.Error("flag not set")
	}
	s.drain()
	if n, _ := unix.Poll(fds, 0); n != 0 {
		t.Error("wake pipe not drained")
	}
}

func TestLoopEndToEnd(t *testing.T) {
	dir, err := os.MkdirTemp("", "wlp")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "wlpaper.sock")

	listener, err := ipc.Listen(path)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	d, session, pipeline := newTestDaemon(t)
	session.events = []compositor.Event{
		compositor.OutputAnnounced{Output: dp1},
		compositor.OutputAnnounced{Output: dp2},
	}
	l := NewLoop(session, d, listener, ipc.NewServer(d, time.Second), d.shutdown)

	type result struct {
		query ipc.Answer
		err   error
	}
	results := make(chan result, 1)
	go func() {
		c := ipc.NewClient(path)
		defer c.Close()

		var r result
		if _, r.err = c.Send(ipc.Request{Kind: ipc.RequestClear, Clear: &ipc.ClearRequest{Color: types.Color{255, 0, 0}}}); r.err == nil {
			if r.query, r.err = c.Send(ipc.Request{Kind: ipc.RequestQuery}); r.err == nil {
				_, r.err = c.Send(ipc.Request{Kind: ipc.RequestKill})
			}
		}
		results <- r
	}()

	if err := runWithTimeout(t, l); err != nil {
		t.Fatalf("Run: %v", err)
	}
	r := <-results
	if r.err != nil {
		t.Fatalf("client: %v", r.err)
	}
	if pipeline.draws != 2 {
		t.Errorf("expected each output drawn once, got %d draws", pipeline.draws)
	}
	if len(r.query.Info) != 2 {
		t.Fatalf("unexpected query answer %+v", r.query)
	}
	for _, info := range r.query.Info {
		if info.Img.String() != "color ff0000" {
			t.Errorf("%s reports %s", info.Name, info.Img)
		}
	}
}

// readableFd returns a descriptor that is always readable.
func readableFd(t *testing.T) int {
	t.Helper()
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_CLOEXEC); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		unix.Close(p[0])
		unix.Close(p[1])
	})
	unix.Write(p[1], []byte{1})
	return p[0]
}

func TestLoopHandlesEventsQueuedBeforeWait(t *testing.T) {
	d, session, pipeline := newTestDaemon(t)
	session.events = []compositor.Event{compositor.OutputAnnounced{Output: dp1}}
	acceptor := &fakeAcceptor{fd: readableFd(t), err: ipc.ErrWouldBlock}
	l := NewLoop(session, d, acceptor, &fakeServer{}, d.shutdown)

	if err := l.iterate(); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	surf := session.drawable(dp1.ID)
	if surf == nil {
		t.Fatal("output not announced")
	}

	updated := dp1
	updated.Width, updated.Height = 16, 9
	session.queued = []compositor.Event{
		compositor.Configure{Surface: surf.id, Width: 12, Height: 6},
		compositor.OutputUpdated{Output: updated},
	}

	drawsBefore := pipeline.draws
	var drawsAtWait, unflushedAtWait, waits int
	session.prepared = func() {
		waits++
		drawsAtWait = pipeline.draws
		unflushedAtWait = session.frames() - session.flushedFrames
	}

	if err := l.iterate(); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if waits != 1 {
		t.Fatalf("expected one wait, got %d", waits)
	}
	if drawsAtWait != drawsBefore+1 {
		t.Errorf("configure not drawn before the wait: %d draws, want %d", drawsAtWait, drawsBefore+1)
	}
	if surf.frames != 1 {
		t.Errorf("expected a frame request for the updated output, got %d", surf.frames)
	}
	if unflushedAtWait != 0 {
		t.Errorf("%d frame requests not flushed before the wait", unflushedAtWait)
	}
	if len(session.queued) != 0 || len(session.events) != 0 {
		t.Error("events left queued")
	}
}
