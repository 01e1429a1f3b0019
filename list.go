package despierta

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// List owns the in-memory alarm collection for the process lifetime. Entries
// keep insertion order, which is the display order.
//
// Every successful mutation runs OnChange with a snapshot of the collection,
// and its error is returned to the caller so a failed save is never silent.
// The in-memory state keeps the mutation either way, so nothing is lost for
// the session.
type List struct {
	// OnChange, when set, persists the collection after each mutation.
	OnChange func(alarms []Alarm) error

	mu     sync.Mutex
	alarms []Alarm
}

func NewList(alarms ...Alarm) *List {
	l := &List{}
	l.alarms = append(l.alarms, alarms...)
	return l
}

// Alarms returns a snapshot of the collection in display order.
func (l *List) Alarms() []Alarm {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *List) Get(id string) (Alarm, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := l.index(id); i >= 0 {
		return l.alarms[i], true
	}
	return Alarm{}, false
}

func (l *List) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.alarms)
}

// Add creates an enabled alarm with a fresh id and appends it.
func (l *List) Add(t TimeOfDay, label string, repeat Weekdays) (Alarm, error) {
	if err := t.Validate(); err != nil {
		return Alarm{}, err
	}
	a := Alarm{
		ID:      uuid.NewString(),
		Time:    t,
		Enabled: true,
		Label:   label,
		Repeat:  repeat,
	}
	err := l.mutate(func() bool {
		l.alarms = append(l.alarms, a)
		return true
	})
	return a, err
}

// Remove deletes the alarm. Removing an unknown id is a no-op.
func (l *List) Remove(id string) error {
	return l.mutate(func() bool {
		i := l.index(id)
		if i < 0 {
			return false
		}
		l.alarms = append(l.alarms[:i], l.alarms[i+1:]...)
		return true
	})
}

// Toggle flips the alarm's enabled flag.
func (l *List) Toggle(id string) error {
	return l.with(id, func(a *Alarm) {
		a.Enabled = !a.Enabled
	})
}

// Disable switches the alarm off. Disabling an unknown id is a no-op, since
// the alarm may have been removed after it fired.
func (l *List) Disable(id string) error {
	return l.mutate(func() bool {
		i := l.index(id)
		if i < 0 || !l.alarms[i].Enabled {
			return false
		}
		l.alarms[i].Enabled = false
		return true
	})
}

// Update rewrites the alarm's mutable fields.
func (l *List) Update(id string, t TimeOfDay, label string, repeat Weekdays) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return l.with(id, func(a *Alarm) {
		a.Time = t
		a.Label = label
		a.Repeat = repeat
	})
}

// Snooze re-arms the alarm at the minute now+d falls in and enables it.
func (l *List) Snooze(id string, now time.Time, d time.Duration) error {
	at := now.Add(d)
	return l.with(id, func(a *Alarm) {
		a.Time = TimeOfDay{Hour: at.Hour(), Minute: at.Minute()}
		a.Enabled = true
	})
}

func (l *List) with(id string, f func(*Alarm)) error {
	return l.mutate(func() bool {
		i := l.index(id)
		if i < 0 {
			return false
		}
		f(&l.alarms[i])
		return true
	})
}

// mutate runs f under the lock and, if f reports a change, calls OnChange
// with a snapshot taken before the lock is released.
func (l *List) mutate(f func() bool) error {
	l.mu.Lock()
	if !f() {
		l.mu.Unlock()
		return nil
	}
	onChange := l.OnChange
	var snapshot []Alarm
	if onChange != nil {
		snapshot = l.snapshot()
	}
	l.mu.Unlock()
	if onChange != nil {
		return onChange(snapshot)
	}
	return nil
}

func (l *List) index(id string) int {
	for i := range l.alarms {
		if l.alarms[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *List) snapshot() []Alarm {
	alarms := make([]Alarm, len(l.alarms))
	copy(alarms, l.alarms)
	return alarms
}
