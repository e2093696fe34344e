package ipc

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/matjam/wlpaper/internal/cli/cmd/utils"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

var (
	// ErrWouldBlock is returned by Accept when no connection is pending.
	ErrWouldBlock = errors.New("no pending connection")

	ErrAlreadyRunning = errors.New("another wlpaper daemon owns the socket")
)

const socketName = "wlpaper.sock"

// SocketPath returns the configured socket path, or one derived from
// XDG_RUNTIME_DIR (falling back to a directory under os.TempDir()).
func SocketPath() string {
	if p := viper.GetString("socket"); p != "" {
		return utils.CanonicalPath(p)
	}
	dir := os.Getenv("XDG_RUNTIME_DIR")
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "wlpaper")
	}
	return filepath.Join(dir, socketName)
}

// Listener owns the control socket. Close removes the socket path, so
// callers defer it immediately after a successful Listen.
type Listener struct {
	ln     *net.UnixListener
	raw    syscall.RawConn
	path   string
	fd     int
	closed bool
}

func Listen(path string) (*Listener, error) {
	dir := filepath.Dir(path)
	if path == "" || dir == "." {
		return nil, fmt.Errorf("couldn't find a valid runtime directory for %q", path)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create runtime dir: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if conn, err := net.DialTimeout("unix", path, time.Second); err == nil {
			conn.Close()
			return nil, fmt.Errorf("%w: %s", ErrAlreadyRunning, path)
		}
		log.Warnf("Removing stale socket at %s", path)
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("couldn't bind socket: %w", err)
	}
	ln.SetUnlinkOnClose(true)

	l := &Listener{ln: ln, path: path, fd: -1}

	// The runtime already keeps the descriptor non-blocking; we only need
	// the raw handle so the loop can poll and accept on it directly.
	raw, err := ln.SyscallConn()
	if err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to set socket to nonblocking mode: %w", err)
	}
	l.raw = raw
	if err := raw.Control(func(fd uintptr) { l.fd = int(fd) }); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to set socket to nonblocking mode: %w", err)
	}

	log.Debugf("Made socket in %s", path)
	return l, nil
}

func (l *Listener) Path() string {
	return l.path
}

func (l *Listener) Fd() int {
	return l.fd
}

// Accept takes one pending connection without blocking. It returns
// ErrWouldBlock when nothing is queued.
func (l *Listener) Accept() (net.Conn, error) {
	var (
		nfd  int
		aerr error
	)
	err := l.raw.Control(func(fd uintptr) {
		nfd, _, aerr = unix.Accept4(int(fd), unix.SOCK_CLOEXEC)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to accept incoming connection: %w", err)
	}
	switch {
	case aerr == nil:
	case errors.Is(aerr, unix.EAGAIN), errors.Is(aerr, unix.EINTR), errors.Is(aerr, unix.ECONNABORTED):
		return nil, ErrWouldBlock
	default:
		return nil, fmt.Errorf("failed to accept incoming connection: %w", aerr)
	}

	f := os.NewFile(uintptr(nfd), "wlpaper-client")
	defer f.Close()
	conn, err := net.FileConn(f)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap incoming connection: %w", err)
	}
	return conn, nil
}

func (l *Listener) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true

	err := l.ln.Close()
	if rmErr := os.Remove(l.path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		log.Errorf("Failed to remove socket at %s: %v", l.path, rmErr)
		return rmErr
	}
	log.Infof("Removed socket at %s", l.path)
	return err
}
