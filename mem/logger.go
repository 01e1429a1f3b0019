package mem

import (
	"context"
	"log"

	"bsid.es/despierta"
)

// FiringLogger logs every firing a Clock publishes. It resubscribes itself
// if it is dropped for being too slow.
type FiringLogger struct {
	clock despierta.Clock

	sub    despierta.ClockSubscription
	cancel context.CancelFunc
}

func NewFiringLogger(clock despierta.Clock) *FiringLogger {
	return &FiringLogger{
		clock: clock,
	}
}

func (l *FiringLogger) Run(ctx context.Context) error {
	l.sub = l.clock.Subscribe(ctx)
	ctx, l.cancel = context.WithCancel(ctx)
	go l.run(ctx)
	return nil
}

func (l *FiringLogger) Interrupt() error {
	l.cancel()
	return nil
}

func (l *FiringLogger) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.sub.Close()
			return

		case firing, ok := <-l.sub.C():
			if !ok {
				l.sub = l.clock.Subscribe(ctx)
				continue
			}
			log.Printf("Alarm %q fired at %v\n", firing.Alarm.Label, firing.At)
		}
	}
}
