// AngelaMos | 2026
// broadcaster_test.go

package settings_test

import (
	"testing"

	"github.com/carterperez-dev/citylistings/internal/settings"
)

func TestBroadcasterFanOut(t *testing.T) {
	b := settings.NewBroadcaster(nil)

	first, unsubFirst := b.Subscribe()
	second, unsubSecond := b.Subscribe()
	defer unsubSecond()

	if n := b.Subscribers(); n != 2 {
		t.Fatalf("subscribers = %d, want 2", n)
	}

	b.Broadcast([]byte(`{"a":1}`))

	for i, ch := range []<-chan []byte{first, second} {
		select {
		case got := <-ch:
			if string(got) != `{"a":1}` {
				t.Fatalf("subscriber %d got %s", i, got)
			}
		default:
			t.Fatalf("subscriber %d received nothing", i)
		}
	}

	unsubFirst()
	unsubFirst()
	if _, ok := <-first; ok {
		t.Fatal("unsubscribed channel should be closed")
	}
	if n := b.Subscribers(); n != 1 {
		t.Fatalf("subscribers after unsubscribe = %d, want 1", n)
	}
}

func TestBroadcasterDropsForSlowSubscriber(t *testing.T) {
	b := settings.NewBroadcaster(nil)
	ch, unsub := b.Subscribe()
	defer unsub()

	for range 20 {
		b.Broadcast([]byte("x"))
	}

	if received := len(ch); received == 0 || received >= 20 {
		t.Fatalf("buffered = %d, want a bounded non-zero count", received)
	}
}

func TestBroadcasterClose(t *testing.T) {
	b := settings.NewBroadcaster(nil)
	ch, unsub := b.Subscribe()

	b.Close()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed by Close")
	}
	unsub()

	late, lateUnsub := b.Subscribe()
	defer lateUnsub()
	if _, ok := <-late; ok {
		t.Fatal("subscription after Close should be closed")
	}
	if n := b.Subscribers(); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}
}
