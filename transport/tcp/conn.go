//go:build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package tcp - connection channel. All socket I/O and handler callbacks run
// on the connection's worker loop.

package tcp

import (
	"net"

	"github.com/joeycumines/logiface"
	"github.com/momentics/hioload-loop/api"
	"github.com/momentics/hioload-loop/reactor"
	"golang.org/x/sys/unix"
)

const readBufferSize = 64 * 1024

// Handler receives connection events, always on the connection's loop.
type Handler interface {
	OnActive(c *Conn)
	// OnRead gets data valid only for the duration of the call.
	OnRead(c *Conn, data []byte)
	// OnClose gets nil on an orderly close by either side.
	OnClose(c *Conn, err error)
}

// Conn is an accepted TCP connection.
type Conn struct {
	*reactor.ChannelBase
	fd      int
	remote  net.Addr
	handler Handler
	log     *logiface.Logger[logiface.Event]

	// loop-local
	readBuf  []byte
	outbound []byte
	closed   bool
	active   bool
}

func newConn(fd int, remote net.Addr, handler Handler, logger *logiface.Logger[logiface.Event]) *Conn {
	return &Conn{
		ChannelBase: reactor.NewChannelBase(""),
		fd:          fd,
		remote:      remote,
		handler:     handler,
		log:         logger,
	}
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr { return c.remote }

// Bind adds the socket to loop's poller.
func (c *Conn) Bind(loop api.EventLoop) error {
	return loop.Poller().Register(c.fd, api.Readable|api.Writable, c.onReady)
}

func (c *Conn) activate() {
	if c.closed || c.active {
		return
	}
	c.active = true
	c.handler.OnActive(c)
	// data may have arrived before activation
	c.readAll()
}

// abort closes a connection whose registration failed.
func (c *Conn) abort() {
	if !c.closed {
		c.closed = true
		_ = unix.Close(c.fd)
	}
}

func (c *Conn) onReady(_ int, r api.Readiness) {
	if c.closed || !c.active {
		return
	}
	if r.Has(api.Readable) || r.Has(api.Hangup) || r.Has(api.Errored) {
		c.readAll()
	}
	if !c.closed && r.Has(api.Writable) {
		c.flush()
	}
}

func (c *Conn) readAll() {
	if c.readBuf == nil {
		c.readBuf = make([]byte, readBufferSize)
	}
	for !c.closed {
		n, err := unix.Read(c.fd, c.readBuf)
		if n > 0 {
			c.handler.OnRead(c, c.readBuf[:n])
			continue
		}
		switch err {
		case unix.EAGAIN:
			return
		case unix.EINTR:
			continue
		case nil:
			c.closeWith(nil)
		default:
			c.closeWith(err)
		}
		return
	}
}

// Write queues p and flushes what the socket accepts. It may be called from
// any goroutine; off-loop calls copy p.
func (c *Conn) Write(p []byte) error {
	loop := c.EventLoop()
	if loop == nil {
		return api.ErrNotRegistered
	}
	if !loop.InLoop() {
		buf := append([]byte(nil), p...)
		return loop.Execute(api.TaskFunc(func() { _ = c.Write(buf) }))
	}
	if c.closed {
		return net.ErrClosed
	}
	c.outbound = append(c.outbound, p...)
	c.flush()
	return nil
}

func (c *Conn) flush() {
	for len(c.outbound) > 0 && !c.closed {
		n, err := unix.Write(c.fd, c.outbound)
		if n > 0 {
			c.outbound = c.outbound[n:]
		}
		switch err {
		case nil:
		case unix.EAGAIN:
			return
		case unix.EINTR:
		default:
			c.closeWith(err)
			return
		}
	}
	if len(c.outbound) == 0 {
		c.outbound = nil
	}
}

// Close closes the connection on its loop.
func (c *Conn) Close() error {
	loop := c.EventLoop()
	if loop == nil {
		c.abort()
		return nil
	}
	if loop.InLoop() {
		c.closeWith(nil)
		return nil
	}
	return loop.Execute(api.TaskFunc(func() { c.closeWith(nil) }))
}

func (c *Conn) closeWith(err error) {
	if c.closed {
		return
	}
	c.closed = true
	if loop := c.EventLoop(); loop != nil {
		_ = loop.Poller().Unregister(c.fd)
	}
	_ = unix.Close(c.fd)
	c.log.Debug().Str("conn", c.ID()).Err(err).Log("connection closed")
	c.handler.OnClose(c, err)
}
