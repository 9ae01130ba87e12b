// File: reactor/register.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Channel registration. Every entry point funnels into register.

package reactor

import (
	"fmt"

	"github.com/momentics/hioload-loop/api"
	"github.com/momentics/hioload-loop/core/concurrency"
	"github.com/ygrebnov/errorc"
)

// ChannelPromise is the completion of one channel registration.
type ChannelPromise struct {
	*concurrency.Promise[api.Channel]
	channel api.Channel
}

// NewChannelPromise returns a pending registration promise for ch whose
// listeners run on owner. A nil owner is bound to the loop the channel is
// registered on. A non-nil owner must be that loop.
func NewChannelPromise(ch api.Channel, owner api.Executor) *ChannelPromise {
	return &ChannelPromise{
		Promise: concurrency.NewPromise[api.Channel](owner),
		channel: ch,
	}
}

func (p *ChannelPromise) Channel() api.Channel { return p.channel }

// RegistrationError is the failure cause of a registration. It matches
// api.ErrChannelRegistration and the underlying cause.
type RegistrationError struct {
	ChannelID string
	Loop      string
	Cause     error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("%s: channel %s on %s: %v", api.ErrChannelRegistration.Error(), e.ChannelID, e.Loop, e.Cause)
}

func (e *RegistrationError) Unwrap() []error {
	return []error{api.ErrChannelRegistration, e.Cause}
}

// register runs the registration of p's channel on loop: inline when the
// caller already is loop's worker, queued otherwise. It never blocks and
// reports every failure through the returned future.
func register(loop *EventLoop, p *ChannelPromise) api.Future[api.Channel] {
	if p == nil || p.channel == nil {
		return concurrency.Failed[api.Channel](errorc.With(api.ErrInvalidArgument, errorc.String("promise", "nil")))
	}
	if p.IsDone() {
		return concurrency.Failed[api.Channel](errorc.With(api.ErrAlreadyCompleted, errorc.String("channel", p.channel.ID())))
	}
	// Listeners of the registration run on the channel's loop.
	if !p.BindExecutor(loop) {
		cause := errorc.With(api.ErrInvalidArgument,
			errorc.String("channel", p.channel.ID()),
			errorc.String("promise_executor", executorName(p.Executor())))
		p.TryFailure(&RegistrationError{ChannelID: p.channel.ID(), Loop: loop.Name(), Cause: cause})
		return p
	}
	if loop.InLoop() {
		register0(loop, p)
		return p
	}
	if err := loop.Execute(api.TaskFunc(func() { register0(loop, p) })); err != nil {
		loop.log.Warning().
			Str("loop", loop.Name()).
			Str("channel", p.channel.ID()).
			Err(err).
			Log("registration rejected")
		p.TryFailure(&RegistrationError{ChannelID: p.channel.ID(), Loop: loop.Name(), Cause: err})
	}
	return p
}

func register0(loop *EventLoop, p *ChannelPromise) {
	ch := p.channel
	fail := func(cause error) {
		loop.log.Debug().
			Str("loop", loop.Name()).
			Str("channel", ch.ID()).
			Err(cause).
			Log("channel registration failed")
		p.TryFailure(&RegistrationError{ChannelID: ch.ID(), Loop: loop.Name(), Cause: cause})
	}
	if p.IsDone() {
		return
	}
	if err := ch.AssignEventLoop(loop); err != nil {
		fail(err)
		return
	}
	if err := safeBind(ch, loop); err != nil {
		fail(err)
		return
	}
	ch.MarkRegistered()
	p.TrySuccess(ch)
}

func safeBind(ch api.Channel, loop *EventLoop) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &concurrency.TaskFault{Executor: loop.Name(), Value: r}
		}
	}()
	return ch.Bind(loop)
}

func executorName(e api.Executor) string {
	if n, ok := e.(interface{ Name() string }); ok {
		return n.Name()
	}
	return ""
}
