package mirror

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"limito/pkg/logger"
)

type captureFeed struct {
	mu     sync.Mutex
	events []Event
	done   chan struct{}
	fail   error
	closed bool
}

func newCaptureFeed(expected int) *captureFeed {
	return &captureFeed{done: make(chan struct{}, expected)}
}

func (f *captureFeed) Publish(_ context.Context, event Event) error {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	f.done <- struct{}{}
	if f.fail != nil {
		return f.fail
	}
	return nil
}

func (f *captureFeed) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *captureFeed) wait(t *testing.T, n int) []Event {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-f.done:
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Output: io.Discard})
}

func TestReservationChangedPublishesEvent(t *testing.T) {
	feed := newCaptureFeed(1)
	n := NewNotifier(feed, testLogger())

	n.ReservationChanged(EventReserved, "limito-snap", "Black", "session-1", 3)

	events := feed.wait(t, 1)
	e := events[0]
	if e.Type != EventReserved {
		t.Fatalf("type = %s, want %s", e.Type, EventReserved)
	}
	if e.ProductID != "limito-snap" || e.Color != "Black" || e.Quantity != 3 {
		t.Fatalf("unexpected event payload: %+v", e)
	}
	if e.ID == "" {
		t.Fatal("event has no id")
	}
	if e.OccurredAt.IsZero() {
		t.Fatal("event has no timestamp")
	}
}

func TestReservationChangedEventIDsAreUnique(t *testing.T) {
	feed := newCaptureFeed(2)
	n := NewNotifier(feed, testLogger())

	n.ReservationChanged(EventReserved, "limito-snap", "Black", "session-1", 1)
	n.ReservationChanged(EventReleased, "limito-snap", "Black", "session-1", 0)

	events := feed.wait(t, 2)
	if events[0].ID == events[1].ID {
		t.Fatalf("two events share id %s", events[0].ID)
	}
}

// Publish failures are logged and dropped; the caller never sees them.
func TestReservationChangedSwallowsPublishFailure(t *testing.T) {
	feed := newCaptureFeed(1)
	feed.fail = errors.New("broker unreachable")
	n := NewNotifier(feed, testLogger())

	n.ReservationChanged(EventCleared, "", "", "", 0)
	feed.wait(t, 1)
}

func TestCloseClosesFeed(t *testing.T) {
	feed := newCaptureFeed(0)
	n := NewNotifier(feed, testLogger())

	n.Close()

	feed.mu.Lock()
	defer feed.mu.Unlock()
	if !feed.closed {
		t.Fatal("feed not closed")
	}
}
