//go:build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - non-blocking listener channel. Readiness on the listening
// socket is drained with accept4 on the owning loop; children go to the
// worker registrar.

package tcp

import (
	"net"
	"sync/atomic"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-loop/api"
	"github.com/momentics/hioload-loop/reactor"
	"github.com/ygrebnov/errorc"
	"golang.org/x/sys/unix"
)

// Registrar registers accepted connections, typically a worker
// reactor.EventLoopGroup.
type Registrar interface {
	Register(ch api.Channel) api.Future[api.Channel]
}

// Listener is an api.Channel owning a listening socket.
type Listener struct {
	*reactor.ChannelBase
	fd       int
	addr     net.Addr
	workers  Registrar
	handler  Handler
	log      *logiface.Logger[logiface.Event]
	closed   atomic.Bool
	accepted atomic.Int64
}

// Listen opens a TCP listening socket on addr. The returned channel still has
// to be registered on a loop.
func Listen(addr string, workers Registrar, handler Handler, logger *logiface.Logger[logiface.Event]) (*Listener, error) {
	if workers == nil || handler == nil {
		return nil, api.ErrInvalidArgument
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errorc.With(err, errorc.String("addr", addr))
	}
	defer ln.Close()

	rc, err := ln.(*net.TCPListener).SyscallConn()
	if err != nil {
		return nil, err
	}
	fd := -1
	var dupErr error
	if err := rc.Control(func(s uintptr) { fd, dupErr = unix.Dup(int(s)) }); err != nil {
		return nil, err
	}
	if dupErr != nil {
		return nil, dupErr
	}
	unix.CloseOnExec(fd)
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &Listener{
		ChannelBase: reactor.NewChannelBase(""),
		fd:          fd,
		addr:        ln.Addr(),
		workers:     workers,
		handler:     handler,
		log:         logger,
	}, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.addr }

// Accepted returns the number of accepted connections.
func (l *Listener) Accepted() int64 { return l.accepted.Load() }

// Bind adds the listening socket to loop's poller.
func (l *Listener) Bind(loop api.EventLoop) error {
	return loop.Poller().Register(l.fd, api.Readable, l.onReady)
}

func (l *Listener) onReady(int, api.Readiness) {
	for !l.closed.Load() {
		nfd, sa, err := unix.Accept4(l.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch err {
		case nil:
		case unix.EAGAIN:
			return
		case unix.EINTR, unix.ECONNABORTED:
			continue
		default:
			l.log.Err().Str("listener", l.addr.String()).Err(err).Log("accept failed")
			return
		}
		l.accepted.Add(1)
		c := newConn(nfd, sockaddrToTCP(sa), l.handler, l.log)
		l.workers.Register(c).AddListener(func(f api.Future[api.Channel]) {
			if !f.IsSuccess() {
				l.log.Warning().Str("conn", c.ID()).Err(f.Cause()).Log("connection registration failed")
				c.abort()
				return
			}
			c.activate()
		})
	}
}

// Close stops accepting. It runs on the listener's loop when there is one.
func (l *Listener) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return nil
	}
	loop := l.EventLoop()
	closeFd := func() {
		if loop != nil {
			_ = loop.Poller().Unregister(l.fd)
		}
		_ = unix.Close(l.fd)
	}
	if loop == nil {
		closeFd()
		return nil
	}
	if loop.InLoop() {
		closeFd()
		return nil
	}
	if err := loop.Execute(api.TaskFunc(closeFd)); err != nil {
		closeFd()
	}
	return nil
}

func sockaddrToTCP(sa unix.Sockaddr) net.Addr {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: net.IP(append([]byte(nil), a.Addr[:]...)), Port: a.Port}
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: net.IP(append([]byte(nil), a.Addr[:]...)), Port: a.Port}
	default:
		return nil
	}
}
