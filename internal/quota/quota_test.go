package quota

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ymatsuda/cardforge/pkg/logger"
)

var fixedNow = func() time.Time {
	return time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

func newTestManager(counter Counter, limit int) *Manager {
	return &Manager{
		limit:   limit,
		counter: counter,
		now:     fixedNow,
		logger:  logger.New("test"),
	}
}

type failingCounter struct{}

func (failingCounter) Add(context.Context, string, int, time.Time) (int, error) {
	return 0, errors.New("redis is down")
}

func (failingCounter) Get(context.Context, string) (int, error) {
	return 0, errors.New("redis is down")
}

func TestValidate_AllowsWithinBudget(t *testing.T) {
	m := newTestManager(NewMemoryCounter(), 10)

	d := m.Validate(context.Background(), 10)
	if !d.CanProcess {
		t.Fatalf("decision = %+v, want allowed", d)
	}
	if !strings.Contains(d.Message, "10 of 10") {
		t.Errorf("message = %q", d.Message)
	}
}

func TestValidate_DeniesWhenBudgetExhausted(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(NewMemoryCounter(), 10)
	m.Consume(ctx, 8)

	d := m.Validate(ctx, 3)
	if d.CanProcess {
		t.Fatalf("decision = %+v, want denied", d)
	}
	if !strings.Contains(d.Message, "need 3, 2 remaining") {
		t.Errorf("message = %q", d.Message)
	}
	if !strings.Contains(d.Suggestion, "2025-03-15T00:00:00Z") {
		t.Errorf("suggestion does not carry the reset time: %q", d.Suggestion)
	}
}

func TestValidate_BrokenCounterFailsOpen(t *testing.T) {
	m := newTestManager(failingCounter{}, 10)

	d := m.Validate(context.Background(), 5)
	if !d.CanProcess {
		t.Fatalf("decision = %+v, want allowed despite counter failure", d)
	}
	if d.Message != "quota status unknown" {
		t.Errorf("message = %q", d.Message)
	}
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(NewMemoryCounter(), 240)
	m.Consume(ctx, 7)

	s := m.Status(ctx)
	if s.Used != 7 || s.Remaining != 233 || s.Limit != 240 {
		t.Errorf("status = %+v", s)
	}
	if !s.ResetAt.Equal(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("reset at = %s", s.ResetAt)
	}
}

func TestMemoryCounter_DaysAreIndependent(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCounter()

	if _, err := c.Add(ctx, "2025-03-14", 3, time.Time{}); err != nil {
		t.Fatal(err)
	}
	other, err := c.Get(ctx, "2025-03-15")
	if err != nil {
		t.Fatal(err)
	}
	if other != 0 {
		t.Errorf("next day already has usage %d", other)
	}
}

func TestRedisCounter(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.SetTime(fixedNow())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	c := NewRedisCounter(client)
	expireAt := fixedNow().Add(14*time.Hour + 30*time.Minute)

	total, err := c.Add(ctx, "2025-03-14", 2, expireAt)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if total != 2 {
		t.Errorf("total = %d, want 2", total)
	}
	if total, err = c.Add(ctx, "2025-03-14", 5, expireAt); err != nil || total != 7 {
		t.Errorf("second Add = %d, %v, want 7", total, err)
	}

	got, err := c.Get(ctx, "2025-03-14")
	if err != nil || got != 7 {
		t.Errorf("Get = %d, %v, want 7", got, err)
	}

	if ttl := mr.TTL("quota:2025-03-14"); ttl <= 0 {
		t.Errorf("key has no expiry, ttl = %v", ttl)
	}
}

func TestRedisCounter_MissingDayIsZero(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	got, err := NewRedisCounter(client).Get(context.Background(), "2025-01-01")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}
