package daemon

import (
	"errors"
	"fmt"
	"net"

	"github.com/charmbracelet/log"
	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"github.com/matjam/wlpaper/internal/compositor"
	"github.com/matjam/wlpaper/internal/ipc"
	"golang.org/x/sys/unix"
)

// Acceptor is the non-blocking control listener.
type Acceptor interface {
	Fd() int
	Accept() (net.Conn, error)
}

// Server answers exactly one request on a connection and closes it.
type Server interface {
	Serve(conn net.Conn)
}

type Loop struct {
	session  compositor.Session
	daemon   *Daemon
	listener Acceptor
	server   Server
	shutdown *Shutdown
}

func NewLoop(session compositor.Session, d *Daemon, listener Acceptor, server Server, shutdown *Shutdown) *Loop {
	return &Loop{
		session:  session,
		daemon:   d,
		listener: listener,
		server:   server,
		shutdown: shutdown,
	}
}

const (
	pollWayland = iota
	pollControl
	pollWake
)

// Run serves compositor events and control requests until shutdown is
// requested. A returned error is a transport-fatal condition.
func (l *Loop) Run() error {
	notifyReady()

	for !l.shutdown.Requested() {
		if err := l.iterate(); err != nil {
			return err
		}
	}
	log.Info("shutting down")
	return nil
}

func (l *Loop) iterate() error {
	if err := l.session.Flush(); err != nil {
		return err
	}
	// only block once nothing is queued and every request made while
	// handling events has been sent
	for {
		if err := l.session.DispatchPending(); err != nil {
			return err
		}
		if err := l.daemon.ProcessEvents(); err != nil {
			return err
		}
		if err := l.session.Flush(); err != nil {
			return err
		}
		prepared, err := l.session.PrepareRead()
		if err != nil {
			return err
		}
		if prepared {
			break
		}
	}

	fds := []unix.PollFd{
		pollWayland: {Fd: int32(l.session.Fd()), Events: unix.POLLIN},
		pollControl: {Fd: int32(l.listener.Fd()), Events: unix.POLLIN},
		pollWake:    {Fd: int32(l.shutdown.Fd()), Events: unix.POLLIN},
	}
	if _, err := unix.Poll(fds, -1); err != nil {
		l.session.CancelRead()
		// a signal interrupting the wait is not a failure
		if errors.Is(err, unix.EINTR) {
			return nil
		}
		return fmt.Errorf("poll failed: %w", err)
	}

	if fds[pollWayland].Revents != 0 {
		if err := l.session.ReadEvents(); err != nil {
			return err
		}
	} else {
		l.session.CancelRead()
	}
	if err := l.session.DispatchPending(); err != nil {
		return err
	}
	if err := l.daemon.ProcessEvents(); err != nil {
		return err
	}

	if fds[pollWake].Revents != 0 {
		l.shutdown.drain()
	}

	if fds[pollControl].Revents != 0 {
		conn, err := l.listener.Accept()
		switch {
		case errors.Is(err, ipc.ErrWouldBlock):
		case err != nil:
			return fmt.Errorf("failed to accept control connection: %w", err)
		default:
			l.server.Serve(conn)
			if err := l.daemon.Err(); err != nil {
				return err
			}
		}
	}
	return nil
}

func notifyReady() {
	sent, err := sddaemon.SdNotify(false, sddaemon.SdNotifyReady)
	switch {
	case err != nil:
		log.Warnf("failed to notify readiness: %v", err)
	case sent:
		log.Debug("readiness notification sent")
	}
}
