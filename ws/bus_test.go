package ws

import (
	"sync"
	"testing"
)

func TestBus_PublishReachesSubscribers(t *testing.T) {
	bus := NewBus()

	var got []Event
	bus.Subscribe(func(ev Event) { got = append(got, ev) })

	bus.Publish(Event{Op: OpDragProgress, Data: DragProgressData{Progress: 0.5}})
	bus.Publish(Event{Op: OpHaptic})

	if len(got) != 2 {
		t.Fatalf("delivered = %d, want 2", len(got))
	}
	if got[0].Op != OpDragProgress || got[1].Op != OpHaptic {
		t.Errorf("ops = %s, %s", got[0].Op, got[1].Op)
	}
}

func TestBus_SeqMonotonic(t *testing.T) {
	bus := NewBus()

	var seqs []int64
	bus.Subscribe(func(ev Event) { seqs = append(seqs, ev.Seq) })

	for i := 0; i < 5; i++ {
		bus.Publish(Event{Op: OpHaptic})
	}

	for i := 1; i < len(seqs); i++ {
		if seqs[i] <= seqs[i-1] {
			t.Fatalf("seq not monotonic: %v", seqs)
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	unsubscribe := bus.Subscribe(func(ev Event) { count++ })

	bus.Publish(Event{Op: OpHaptic})
	unsubscribe()
	bus.Publish(Event{Op: OpHaptic})

	if count != 1 {
		t.Errorf("delivered after unsubscribe = %d, want 1", count)
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := NewBus()

	a, b := 0, 0
	bus.Subscribe(func(ev Event) { a++ })
	bus.Subscribe(func(ev Event) { b++ })

	bus.Publish(Event{Op: OpHaptic})

	if a != 1 || b != 1 {
		t.Errorf("deliveries = %d/%d, want 1/1", a, b)
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.Subscribe(func(ev Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				bus.Publish(Event{Op: OpHaptic})
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if count != 200 {
		t.Errorf("delivered = %d, want 200", count)
	}
}
