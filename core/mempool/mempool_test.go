package mempool

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
)

func TestPushDedupe(t *testing.T) {
	t.Parallel()
	mem := NewMempool(0)

	if err := mem.Push([]byte("tx-1")); err != nil {
		t.Fatal(err)
	}
	if err := mem.Push([]byte("tx-1")); err != ErrTxInPool {
		t.Fatalf("expected ErrTxInPool, got %v", err)
	}
	if mem.Size() != 1 {
		t.Fatalf("size %d, want 1", mem.Size())
	}
}

func TestCapacity(t *testing.T) {
	t.Parallel()
	mem := NewMempool(2)

	if err := mem.Push([]byte("tx-1")); err != nil {
		t.Fatal(err)
	}
	if err := mem.Push([]byte("tx-2")); err != nil {
		t.Fatal(err)
	}
	if err := mem.Push([]byte("tx-3")); err != ErrPoolFull {
		t.Fatalf("expected ErrPoolFull, got %v", err)
	}
}

func TestReapKeepsArrivalOrder(t *testing.T) {
	t.Parallel()
	mem := NewMempool(0)

	for i := 0; i < 5; i++ {
		if err := mem.Push([]byte(fmt.Sprintf("tx-%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	reaped := mem.Reap(3)
	if len(reaped) != 3 {
		t.Fatalf("reaped %d, want 3", len(reaped))
	}
	for i, tx := range reaped {
		if !bytes.Equal(tx, []byte(fmt.Sprintf("tx-%d", i))) {
			t.Fatalf("position %d holds %q", i, tx)
		}
	}

	// reap does not remove
	if mem.Size() != 5 {
		t.Fatalf("size %d, want 5", mem.Size())
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()
	mem := NewMempool(0)

	for i := 0; i < 4; i++ {
		if err := mem.Push([]byte(fmt.Sprintf("tx-%d", i))); err != nil {
			t.Fatal(err)
		}
	}

	mem.Remove([][]byte{[]byte("tx-1"), []byte("tx-3"), []byte("unknown")})

	if mem.Size() != 2 {
		t.Fatalf("size %d, want 2", mem.Size())
	}

	// removed hashes can be resubmitted
	if err := mem.Push([]byte("tx-1")); err != nil {
		t.Fatal(err)
	}
}

func TestConcurrentPush(t *testing.T) {
	t.Parallel()
	mem := NewMempool(0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = mem.Push([]byte(fmt.Sprintf("tx-%d-%d", worker, j)))
			}
		}(i)
	}
	wg.Wait()

	if mem.Size() != 1000 {
		t.Fatalf("size %d, want 1000", mem.Size())
	}
}
