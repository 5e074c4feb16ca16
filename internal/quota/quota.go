package quota

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// Decision is the gate's answer to "may this batch proceed right now".
type Decision struct {
	CanProcess bool   `json:"canProcess"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Gate is consulted before any multi-item batch starts.
type Gate interface {
	Validate(ctx context.Context, itemCount int) Decision
}

// Status is the current daily budget, exposed for observability.
type Status struct {
	Used      int       `json:"used"`
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset_at"`
}

// Counter is the persistence behind the daily budget. Implementations
// must be safe for concurrent use.
type Counter interface {
	// Add increments the day's usage by n and returns the new total.
	Add(ctx context.Context, day string, n int, expireAt time.Time) (int, error)
	// Get returns the day's usage so far.
	Get(ctx context.Context, day string) (int, error)
}

// Manager tracks a daily request budget against the provider's free-tier
// limit. It is the one piece of cross-request shared state; the counter
// behind it does the synchronization.
type Manager struct {
	limit   int
	counter Counter
	now     func() time.Time
	logger  *logger.Logger
}

var _ Gate = (*Manager)(nil)

func NewManager(counter Counter) *Manager {
	return &Manager{
		limit:   config.QuotaDailyLimit,
		counter: counter,
		now:     time.Now,
		logger:  logger.New("quota"),
	}
}

func (m *Manager) Validate(ctx context.Context, itemCount int) Decision {
	used, err := m.counter.Get(ctx, m.dayKey())
	if err != nil {
		// A broken counter must not take the service down with it.
		m.logger.Error("quota counter unavailable, allowing request", "error", err)
		return Decision{CanProcess: true, Message: "quota status unknown"}
	}

	remaining := m.limit - used
	if remaining < itemCount {
		return Decision{
			CanProcess: false,
			Message:    fmt.Sprintf("daily quota insufficient: need %d, %d remaining", itemCount, max(remaining, 0)),
			Suggestion: fmt.Sprintf("quota resets at %s; retry then or reduce the page count", m.resetAt().Format(time.RFC3339)),
		}
	}
	return Decision{
		CanProcess: true,
		Message:    fmt.Sprintf("%d of %d daily requests remaining", remaining, m.limit),
	}
}

// Consume records n requests against today's budget.
func (m *Manager) Consume(ctx context.Context, n int) {
	if _, err := m.counter.Add(ctx, m.dayKey(), n, m.resetAt()); err != nil {
		m.logger.Error("failed to record quota usage", "error", err)
	}
}

func (m *Manager) Status(ctx context.Context) Status {
	used, err := m.counter.Get(ctx, m.dayKey())
	if err != nil {
		m.logger.Error("quota counter unavailable", "error", err)
	}
	return Status{
		Used:      used,
		Remaining: max(m.limit-used, 0),
		Limit:     m.limit,
		ResetAt:   m.resetAt(),
	}
}

func (m *Manager) dayKey() string {
	return m.now().UTC().Format("2006-01-02")
}

func (m *Manager) resetAt() time.Time {
	now := m.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(24 * time.Hour)
}

// MemoryCounter is the in-process fallback when Redis is offline.
type MemoryCounter struct {
	mu    sync.Mutex
	usage map[string]int
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{usage: make(map[string]int)}
}

func (c *MemoryCounter) Add(_ context.Context, day string, n int, _ time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage[day] += n
	return c.usage[day], nil
}

func (c *MemoryCounter) Get(_ context.Context, day string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage[day], nil
}
