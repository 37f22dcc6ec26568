package transport

import (
	"context"
	"testing"
	"time"
)

func TestChanMutexExclusive(t *testing.T) {
	m := NewChanMutex()
	ctx := context.Background()

	guard, err := m.Lock(ctx)
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		g, err := m.Lock(ctx)
		if err != nil {
			t.Errorf("second Lock: %v", err)
			return
		}
		close(acquired)
		g.Unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("second Lock acquired the guard while the first was still held")
	case <-time.After(20 * time.Millisecond):
	}

	guard.Unlock()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Lock never acquired after Unlock")
	}
}

func TestChanMutexLockRespectsContext(t *testing.T) {
	m := NewChanMutex()
	if _, err := m.Lock(context.Background()); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.Lock(ctx)
	if err == nil {
		t.Fatal("Lock should fail once ctx is done")
	}
	if _, ok := err.(*LockFailed); !ok {
		t.Errorf("err = %T, want *LockFailed", err)
	}
}

func TestChanMutexDoubleUnlockPanics(t *testing.T) {
	m := NewChanMutex()
	guard, err := m.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	guard.Unlock()

	defer func() {
		if recover() == nil {
			t.Fatal("second Unlock should panic")
		}
	}()
	guard.Unlock()
}
