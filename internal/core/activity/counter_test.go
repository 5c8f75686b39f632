package activity

import (
	"reflect"
	"sync"
	"testing"

	"github.com/vietddude/paydash/internal/core/events"
)

func recordLoading(bus *events.Bus) *[]bool {
	var got []bool
	bus.On(events.Loading, func(args ...any) {
		got = append(got, args[0].(bool))
	})
	return &got
}

func TestCounter_Transitions(t *testing.T) {
	bus := events.NewBus()
	got := recordLoading(bus)
	c := NewCounter(bus)

	c.Begin() // 0 -> 1
	c.Begin() // 1 -> 2, silent
	c.End()   // 2 -> 1, silent
	c.End()   // 1 -> 0

	want := []bool{true, false}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("got %v, want %v", *got, want)
	}
	if c.Busy() {
		t.Error("counter should be idle")
	}
}

func TestCounter_FlooredAtZero(t *testing.T) {
	bus := events.NewBus()
	got := recordLoading(bus)
	c := NewCounter(bus)

	c.End()
	c.End()
	if c.Count() != 0 {
		t.Fatalf("expected 0, got %d", c.Count())
	}
	if len(*got) != 0 {
		t.Errorf("no events expected, got %v", *got)
	}

	c.Begin()
	if c.Count() != 1 {
		t.Errorf("expected 1, got %d", c.Count())
	}
}

func TestCounter_Concurrency(t *testing.T) {
	c := NewCounter(nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Begin()
			c.End()
		}()
	}
	wg.Wait()

	if c.Count() != 0 {
		t.Errorf("expected 0 in-flight, got %d", c.Count())
	}
}
