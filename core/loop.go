package core

import "time"

// EventSource is the window side of the event loop.
type EventSource interface {
	ShouldClose() bool
	// PollEvents returns input gathered since the previous call.
	PollEvents() []Event
	SwapBuffers()
}

// EventLoop turns an EventSource into an ordered stream of input, fixed-step
// update, render and after-render events.
//
// Updates run at UPS per second on a fixed step. Renders are limited to
// MaxFPS per second. Every RenderEvent is followed by an AfterRenderEvent,
// emitted after the source swapped buffers. Input events are delivered as
// soon as they are polled, before any pending update or render.
type EventLoop struct {
	UPS    int
	MaxFPS int

	now   func() time.Time
	sleep func(time.Duration)

	started     bool
	lastUpdate  time.Time
	lastFrame   time.Time
	afterRender bool
	pending     []Event
}

func NewEventLoop(ups, maxFPS int) *EventLoop {
	return &EventLoop{
		UPS:    ups,
		MaxFPS: maxFPS,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

func (l *EventLoop) updateStep() time.Duration {
	return time.Second / time.Duration(max(l.UPS, 1))
}

func (l *EventLoop) frameStep() time.Duration {
	return time.Second / time.Duration(max(l.MaxFPS, 1))
}

// Next blocks until the next event is due. It returns false once the source
// wants to close.
func (l *EventLoop) Next(src EventSource) (Event, bool) {
	if !l.started {
		now := l.now()
		l.lastUpdate, l.lastFrame = now, now
		l.started = true
	}

	for {
		if l.afterRender {
			l.afterRender = false
			src.SwapBuffers()
			return AfterRenderEvent{}, true
		}
		if len(l.pending) > 0 {
			e := l.pending[0]
			l.pending = l.pending[1:]
			return e, true
		}
		if src.ShouldClose() {
			return nil, false
		}
		l.pending = append(l.pending, src.PollEvents()...)
		if len(l.pending) > 0 {
			continue
		}

		now := l.now()
		nextUpdate := l.lastUpdate.Add(l.updateStep())
		nextFrame := l.lastFrame.Add(l.frameStep())

		if nextFrame.Before(nextUpdate) {
			if now.Before(nextFrame) {
				l.sleep(nextFrame.Sub(now))
				continue
			}
			l.lastFrame = now
			l.afterRender = true
			return RenderEvent{ExtDt: now.Sub(l.lastUpdate).Seconds()}, true
		}

		if now.Before(nextUpdate) {
			l.sleep(nextUpdate.Sub(now))
			continue
		}
		l.lastUpdate = nextUpdate
		return UpdateEvent{Dt: l.updateStep().Seconds()}, true
	}
}
