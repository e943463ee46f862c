package timewindow

import (
	"sync"
	"testing"
	"time"
)

func TestStoreReplaceIsObservedByAllReaders(t *testing.T) {
	day, _ := FromPreset(Last24Hours)
	week, _ := FromPreset(Last7Days)
	store := NewStore(day)

	if got := store.Current(); !got.Equal(day) {
		t.Fatalf("Current() = %v, want %v", got, day)
	}

	store.Replace(week)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := store.Current(); !got.Equal(week) {
				t.Errorf("Current() = %v, want %v", got, week)
			}
		}()
	}
	wg.Wait()
}

func TestStoreSubscribeReceivesReplacements(t *testing.T) {
	day, _ := FromPreset(Last24Hours)
	week, _ := FromPreset(Last7Days)
	month, _ := FromPreset(Last30Days)
	store := NewStore(day)

	ch := store.Subscribe()
	store.Replace(week)
	store.Replace(month)

	for _, want := range []Window{week, month} {
		select {
		case got := <-ch:
			if !got.Equal(want) {
				t.Fatalf("received %v, want %v", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("no update received, want %v", want)
		}
	}
}

func TestStoreUnsubscribeClosesChannel(t *testing.T) {
	day, _ := FromPreset(Last24Hours)
	store := NewStore(day)

	ch := store.Subscribe()
	store.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Fatal("channel still open after Unsubscribe")
	}

	// a second Unsubscribe for the same channel is a no-op
	store.Unsubscribe(ch)

	week, _ := FromPreset(Last7Days)
	store.Replace(week)
	if got := store.Current(); !got.Equal(week) {
		t.Fatalf("Current() = %v, want %v", got, week)
	}
}

func TestStoreSlowSubscriberIsSkipped(t *testing.T) {
	day, _ := FromPreset(Last24Hours)
	week, _ := FromPreset(Last7Days)
	store := NewStore(day)

	ch := store.Subscribe()
	// fill the subscriber buffer without draining
	for i := 0; i < cap(ch)+3; i++ {
		store.Replace(week)
	}

	if got := store.Dropped(); got != 3 {
		t.Errorf("Dropped() = %d, want 3", got)
	}
	if got := store.Current(); !got.Equal(week) {
		t.Errorf("Current() = %v, want %v after dropped notifications", got, week)
	}
}
