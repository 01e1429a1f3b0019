package mem

import (
	"context"
	"testing"
	"time"

	"bsid.es/despierta"
)

// 2024-03-04 is a Monday.
var refMonday = time.Date(2024, 3, 4, 7, 29, 0, 0, time.UTC)

func TestClockFiresOnMinuteEntry(t *testing.T) {
	list := despierta.NewList()
	alarm, err := list.Add(despierta.TimeOfDay{Hour: 7, Minute: 30}, "wake up", 0)
	if err != nil {
		t.Fatal(err)
	}

	clock := NewClock(list)
	now := refMonday.Add(50 * time.Second) // 07:29:50
	clock.Now = func() time.Time { return now }

	sub := clock.Subscribe(context.Background())
	defer sub.Close()

	last := now.Truncate(time.Minute)

	// Still inside 07:29, nothing fires.
	now = now.Add(5 * time.Second)
	last = clock.tick(last)
	assertNoFiring(t, sub)

	// Entering 07:30 fires exactly once.
	now = now.Add(10 * time.Second) // 07:30:05
	last = clock.tick(last)
	firing := mustFiring(t, sub)
	if got, want := firing.Alarm.ID, alarm.ID; got != want {
		t.Errorf("wrong alarm\ngot:  %s\nwant: %s", got, want)
	}
	if got, want := firing.At, now.Truncate(time.Minute); !got.Equal(want) {
		t.Errorf("wrong firing time\ngot:  %v\nwant: %v", got, want)
	}
	assertNoFiring(t, sub)

	// The fired one-shot is disabled.
	if got, _ := list.Get(alarm.ID); got.Enabled {
		t.Error("one-shot still enabled after firing")
	}

	// Later ticks inside the same minute stay quiet.
	now = now.Add(30 * time.Second)
	clock.tick(last)
	assertNoFiring(t, sub)
}

func TestClockFiresAllAlarmsOnSameMinute(t *testing.T) {
	list := despierta.NewList()
	a, err := list.Add(despierta.TimeOfDay{Hour: 7, Minute: 30}, "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := list.Add(despierta.TimeOfDay{Hour: 7, Minute: 30}, "b", 0)
	if err != nil {
		t.Fatal(err)
	}

	clock := NewClock(list)
	now := refMonday
	clock.Now = func() time.Time { return now }

	sub := clock.Subscribe(context.Background())
	defer sub.Close()

	last := now.Truncate(time.Minute)
	now = now.Add(1 * time.Minute)
	clock.tick(last)

	got := map[string]int{}
	got[mustFiring(t, sub).Alarm.ID]++
	got[mustFiring(t, sub).Alarm.ID]++
	assertNoFiring(t, sub)

	if got[a.ID] != 1 || got[b.ID] != 1 {
		t.Errorf("each alarm should fire exactly once, got %v", got)
	}
}

func TestClockRepeatingAlarmStaysEnabled(t *testing.T) {
	repeat, err := despierta.ParseWeekdays("mon")
	if err != nil {
		t.Fatal(err)
	}
	list := despierta.NewList()
	alarm, err := list.Add(despierta.TimeOfDay{Hour: 7, Minute: 30}, "standup", repeat)
	if err != nil {
		t.Fatal(err)
	}

	clock := NewClock(list)
	now := refMonday
	clock.Now = func() time.Time { return now }

	sub := clock.Subscribe(context.Background())
	defer sub.Close()

	last := now.Truncate(time.Minute)
	now = now.Add(1 * time.Minute) // 07:30
	last = clock.tick(last)
	mustFiring(t, sub)

	if got, _ := list.Get(alarm.ID); !got.Enabled {
		t.Error("repeating alarm was disabled by firing")
	}

	// A backward clock adjustment across the scheduled minute fires again:
	// the check is state-based, not delta-based.
	now = refMonday.Add(59 * time.Second) // back to 07:29:59
	last = clock.tick(last)
	assertNoFiring(t, sub)

	now = now.Add(31 * time.Second) // 07:30:30 again
	clock.tick(last)
	mustFiring(t, sub)
}

func TestClockRepeatSkipsOtherDays(t *testing.T) {
	repeat, err := despierta.ParseWeekdays("tue")
	if err != nil {
		t.Fatal(err)
	}
	list := despierta.NewList()
	if _, err := list.Add(despierta.TimeOfDay{Hour: 7, Minute: 30}, "", repeat); err != nil {
		t.Fatal(err)
	}

	clock := NewClock(list)
	now := refMonday
	clock.Now = func() time.Time { return now }

	sub := clock.Subscribe(context.Background())
	defer sub.Close()

	last := now.Truncate(time.Minute)
	now = now.Add(1 * time.Minute)
	clock.tick(last)
	assertNoFiring(t, sub)
}

func TestClockDropsSlowSubscriber(t *testing.T) {
	clock := NewClock(despierta.NewList())
	sub := clock.Subscribe(context.Background())

	for i := 0; i <= subBufferSize; i++ {
		clock.publish(despierta.Firing{At: refMonday})
	}

	for i := 0; i < subBufferSize; i++ {
		if _, ok := <-sub.C(); !ok {
			t.Fatalf("channel closed after %d of %d buffered firings", i, subBufferSize)
		}
	}
	if _, ok := <-sub.C(); ok {
		t.Error("expected closed channel after overflow")
	}
}

func mustFiring(tb testing.TB, sub despierta.ClockSubscription) despierta.Firing {
	tb.Helper()
	select {
	case firing, ok := <-sub.C():
		if !ok {
			tb.Fatal("subscription closed")
		}
		return firing
	default:
		tb.Fatal("expected a firing")
	}
	return despierta.Firing{}
}

func assertNoFiring(tb testing.TB, sub despierta.ClockSubscription) {
	tb.Helper()
	select {
	case firing := <-sub.C():
		tb.Fatalf("unexpected firing %+v", firing)
	default:
	}
}
