package userdata

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAcquireLock_Exclusive(t *testing.T) {
	dir := t.TempDir()

	first, err := AcquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("first lock: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()
	if _, err := AcquireLock(ctx, dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("second lock error = %v, want ErrLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	again, err := AcquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	again.Release()
}

func TestLock_ReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("Release on nil lock = %v", err)
	}
}
