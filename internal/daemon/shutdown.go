package daemon

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// Shutdown is the process-wide stop flag. Setting it also makes the wake
// descriptor readable so a blocked poll returns.
type Shutdown struct {
	flag  atomic.Bool
	wakeR int
	wakeW int
}

func NewShutdown() (*Shutdown, error) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("failed to create wake pipe: %w", err)
	}
	return &Shutdown{wakeR: p[0], wakeW: p[1]}, nil
}

// Request sets the flag. It is safe to call from any goroutine.
func (s *Shutdown) Request() {
	s.flag.Store(true)
	if _, err := unix.Write(s.wakeW, []byte{1}); err != nil && !errors.Is(err, unix.EAGAIN) {
		log.Debugf("wake pipe write failed: %v", err)
	}
}

func (s *Shutdown) Requested() bool {
	return s.flag.Load()
}

// Fd is the read end of the wake pipe.
func (s *Shutdown) Fd() int {
	return s.wakeR
}

func (s *Shutdown) drain() {
	var buf [64]byte
	for {
		n, err := unix.Read(s.wakeR, buf[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// HandleSignals sets the flag on SIGINT, SIGQUIT or SIGTERM. The
// returned func stops signal delivery.
func (s *Shutdown) HandleSignals() (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-ch:
			log.Infof("received %s, shutting down", sig)
			s.Request()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(ch)
		close(done)
	}
}

func (s *Shutdown) Close() {
	unix.Close(s.wakeR)
	unix.Close(s.wakeW)
}
