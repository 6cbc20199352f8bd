package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/knowhub/internal/domain"
)

// BudgetAction defines behavior when the token budget is spent.
type BudgetAction string

const (
	// BudgetActionWarn logs and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject fails the request with ErrEmbeddingQuotaExceeded.
	BudgetActionReject BudgetAction = "reject"
)

// persistTimeout bounds the write-behind of recorded tokens.
const persistTimeout = 2 * time.Second

// BudgetStore persists token counters. IncrBy must be safe to repeat.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetOptions configures a BudgetTracker. A zero limit means unlimited.
type BudgetOptions struct {
	Provider     string
	KeyPrefix    string
	DailyLimit   int64
	MonthlyLimit int64
	Action       BudgetAction
}

// BudgetUsage is a point-in-time view of the tracker counters.
type BudgetUsage struct {
	DailyUsed    int64
	DailyLimit   int64
	MonthlyUsed  int64
	MonthlyLimit int64
}

// Exceeded reports whether either limit is spent.
func (u BudgetUsage) Exceeded() bool {
	return (u.DailyLimit > 0 && u.DailyUsed >= u.DailyLimit) ||
		(u.MonthlyLimit > 0 && u.MonthlyUsed >= u.MonthlyLimit)
}

// BudgetTracker keeps daily and monthly token counters in memory and
// writes them behind to an optional store. Check never leaves the process.
type BudgetTracker struct {
	mu      sync.Mutex
	opts    BudgetOptions
	daily   int64
	monthly int64
	day     time.Time
	month   time.Time
	store   BudgetStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewBudgetTracker creates a tracker. An empty key prefix falls back to domain.KeyPrefix.
func NewBudgetTracker(opts BudgetOptions, logger *zap.Logger) *BudgetTracker {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = domain.KeyPrefix
	}
	if opts.Action == "" {
		opts.Action = BudgetActionWarn
	}
	b := &BudgetTracker{
		opts:   opts,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	b.day, b.month = periodStart(b.now())
	return b
}

// WithStore attaches a persistence store and restores the current counters from it.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	now := b.now()
	if v, err := store.Get(ctx, b.dailyKey(now)); err == nil {
		b.daily = v
	} else {
		b.logger.Warn("Failed to restore daily token budget", zap.Error(err))
	}
	if v, err := store.Get(ctx, b.monthlyKey(now)); err == nil {
		b.monthly = v
	} else {
		b.logger.Warn("Failed to restore monthly token budget", zap.Error(err))
	}

	b.logger.Info("Token budget restored",
		zap.String("provider", b.opts.Provider),
		zap.Int64("daily_used", b.daily),
		zap.Int64("monthly_used", b.monthly),
	)
	return b
}

// Check reports whether a new request fits the budget.
func (b *BudgetTracker) Check(_ context.Context) error {
	u := b.Usage()
	if !u.Exceeded() {
		return nil
	}
	if b.opts.Action == BudgetActionReject {
		return domain.ErrEmbeddingQuotaExceeded
	}
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.opts.Provider),
		zap.Int64("daily_used", u.DailyUsed),
		zap.Int64("daily_limit", u.DailyLimit),
		zap.Int64("monthly_used", u.MonthlyUsed),
		zap.Int64("monthly_limit", u.MonthlyLimit),
	)
	return nil
}

// Record adds consumed tokens and persists them if a store is attached.
func (b *BudgetTracker) Record(tokens int64) {
	b.mu.Lock()
	now := b.now()
	b.rollover(now)
	b.daily += tokens
	b.monthly += tokens
	store := b.store
	b.mu.Unlock()

	if store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	for _, key := range []string{b.dailyKey(now), b.monthlyKey(now)} {
		if err := store.IncrBy(ctx, key, tokens); err != nil {
			b.logger.Warn("Failed to persist token budget", zap.String("key", key), zap.Error(err))
		}
	}
}

// Usage returns the counters for the current day and month.
func (b *BudgetTracker) Usage() BudgetUsage {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover(b.now())
	return BudgetUsage{
		DailyUsed:    b.daily,
		DailyLimit:   b.opts.DailyLimit,
		MonthlyUsed:  b.monthly,
		MonthlyLimit: b.opts.MonthlyLimit,
	}
}

// RemainingDaily returns tokens left today, -1 when unlimited.
func (b *BudgetTracker) RemainingDaily() int64 {
	u := b.Usage()
	return remaining(u.DailyLimit, u.DailyUsed)
}

// RemainingMonthly returns tokens left this month, -1 when unlimited.
func (b *BudgetTracker) RemainingMonthly() int64 {
	u := b.Usage()
	return remaining(u.MonthlyLimit, u.MonthlyUsed)
}

func (b *BudgetTracker) rollover(now time.Time) {
	day, month := periodStart(now)
	if day.After(b.day) {
		b.daily = 0
		b.day = day
	}
	if month.After(b.month) {
		b.monthly = 0
		b.month = month
	}
}

func (b *BudgetTracker) dailyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", b.opts.KeyPrefix, b.opts.Provider, t.Format(time.DateOnly))
}

func (b *BudgetTracker) monthlyKey(t time.Time) string {
	return fmt.Sprintf("%sbudget:%s:monthly:%s", b.opts.KeyPrefix, b.opts.Provider, t.Format("2006-01"))
}

func remaining(limit, used int64) int64 {
	if limit == 0 {
		return -1
	}
	return max(limit-used, 0)
}

func periodStart(t time.Time) (day, month time.Time) {
	day = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	month = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return day, month
}
