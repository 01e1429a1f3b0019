package mem

import (
	"context"
	"sync"
	"time"

	"bsid.es/despierta"
)

// Clock fires alarms from a List by polling the wall clock.
//
// The loop wakes every Interval and fires when the clock has entered a new
// minute matching an enabled alarm. Matching is state-based: the truncated
// minute is compared against the last minute seen, so sub-second jitter
// can't fire the same alarm twice, and a backward clock adjustment across a
// scheduled time still fires once.
type Clock struct {
	// Now reports the current time. Defaults to time.Now.
	Now func() time.Time

	// Interval is how often the loop wakes. Defaults to one second.
	Interval time.Duration

	list *despierta.List

	mu   sync.Mutex
	subs map[*ClockSubscription]struct{}

	cancel context.CancelFunc
}

func NewClock(list *despierta.List) *Clock {
	return &Clock{
		Now:      time.Now,
		Interval: 1 * time.Second,
		list:     list,
		subs:     make(map[*ClockSubscription]struct{}),
		cancel:   func() {},
	}
}

func (c *Clock) Run(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
	return nil
}

func (c *Clock) Interrupt() error {
	c.cancel()
	return nil
}

var _ despierta.Clock = (*Clock)(nil)

const subBufferSize = 16

func (c *Clock) Subscribe(ctx context.Context) despierta.ClockSubscription {
	c.mu.Lock()
	defer c.mu.Unlock()
	sub := &ClockSubscription{
		clock: c,
		c:     make(chan despierta.Firing, subBufferSize),
	}
	c.subs[sub] = struct{}{}
	return sub
}

func (c *Clock) run(ctx context.Context) {
	interval := c.Interval
	if interval <= 0 {
		interval = 1 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// The minute the process starts in never fires: an alarm rings when the
	// clock enters its minute, not when the checker shows up mid-minute.
	last := c.Now().Truncate(time.Minute)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last = c.tick(last)
		}
	}
}

// tick fires due alarms when the wall clock has moved to a new minute. It
// returns the minute to compare against on the next tick.
func (c *Clock) tick(last time.Time) time.Time {
	minute := c.Now().Truncate(time.Minute)
	if minute.Equal(last) {
		return last
	}
	for _, alarm := range c.list.Alarms() {
		if !alarm.DueAt(minute) {
			continue
		}
		if alarm.OneShot() {
			// Switch the alarm off before publishing so it can't refire,
			// no matter how slowly the firing is consumed.
			_ = c.list.Disable(alarm.ID)
			alarm.Enabled = false
		}
		c.publish(despierta.Firing{Alarm: alarm, At: minute})
	}
	return minute
}

func (c *Clock) publish(firing despierta.Firing) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for sub := range c.subs {
		select {
		case sub.c <- firing:
		default:
			// The subscriber is too slow. Drop it so ticking never blocks.
			sub.close()
		}
	}
}

var _ despierta.ClockSubscription = (*ClockSubscription)(nil)

type ClockSubscription struct {
	clock *Clock
	c     chan despierta.Firing
	once  sync.Once
}

func (sub *ClockSubscription) C() <-chan despierta.Firing {
	return sub.c
}

func (sub *ClockSubscription) Close() error {
	sub.clock.mu.Lock()
	defer sub.clock.mu.Unlock()
	sub.close()
	return nil
}

func (sub *ClockSubscription) close() {
	sub.once.Do(func() {
		close(sub.c)
	})
	delete(sub.clock.subs, sub)
}
