package despierta

import (
	"context"
	"time"
)

// Clock watches the wall clock and tells subscribers when an alarm goes off.
type Clock interface {
	Subscribe(context.Context) ClockSubscription
}

type ClockSubscription interface {
	// C returns the channel firings are delivered on.
	//
	// If the subscriber can't keep up with the firings coming from this
	// channel, Clock unsubscribes it and closes its channel; in this case,
	// the subscription holder will need to subscribe again.
	C() <-chan Firing

	// Close closes the subscription.
	Close() error
}

// Firing is delivered to subscribers when an alarm goes off. Alarm is a copy
// of the entry as it was when it fired; At is the minute it fired in.
type Firing struct {
	Alarm Alarm     `json:"alarm"`
	At    time.Time `json:"at"`
}
