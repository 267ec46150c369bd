package query

import (
	"sync"
	"testing"
	"time"
)

type collector struct {
	mu  sync.Mutex
	got []string
}

func (c *collector) add(v string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, v)
}

func (c *collector) values() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

func TestDebouncer_OnlyLastValueFires(t *testing.T) {
	var c collector
	d := NewDebouncer(30*time.Millisecond, c.add)
	for _, v := range []string{"g", "go", "go m", "go meetup"} {
		d.Trigger(v)
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(120 * time.Millisecond)

	got := c.values()
	if len(got) != 1 || got[0] != "go meetup" {
		t.Errorf("fired %v, want only [go meetup]", got)
	}
}

func TestDebouncer_SeparateBurstsFireSeparately(t *testing.T) {
	var c collector
	d := NewDebouncer(20*time.Millisecond, c.add)
	d.Trigger("a")
	time.Sleep(80 * time.Millisecond)
	d.Trigger("b")
	time.Sleep(80 * time.Millisecond)

	got := c.values()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("fired %v, want [a b]", got)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var c collector
	d := NewDebouncer(time.Hour, c.add)
	d.Trigger("now")
	if !d.Flush() {
		t.Fatal("Flush should report a pending value")
	}
	if d.Flush() {
		t.Error("second Flush should find nothing pending")
	}
	if got := c.values(); len(got) != 1 || got[0] != "now" {
		t.Errorf("fired %v, want [now]", got)
	}
}

func TestDebouncer_Stop(t *testing.T) {
	var c collector
	d := NewDebouncer(10*time.Millisecond, c.add)
	d.Trigger("dropped")
	d.Stop()
	d.Trigger("ignored")
	time.Sleep(50 * time.Millisecond)
	if got := c.values(); len(got) != 0 {
		t.Errorf("fired %v after Stop, want nothing", got)
	}
}
