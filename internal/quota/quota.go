package quota

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/antique-korea/appraiser/internal/clock"
	"github.com/antique-korea/appraiser/internal/storage"
)

// DefaultDailyLimit is how many appraisals a user may run per calendar day
// unless overridden by configuration.
const DefaultDailyLimit = 3

const (
	keyLastDate = "last_appraisal_date"
	keyCount    = "daily_appraisal_count"
)

// ErrLimitReached is returned when a consume is attempted at or past the
// daily limit. Callers are expected to check CanConsume first.
var ErrLimitReached = errors.New("daily appraisal limit reached")

// Snapshot is the quota state reported to the presentation layer.
type Snapshot struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Limit int    `json:"limit"`
}

// Tracker enforces the daily appraisal cap. The stored date and count roll
// over lazily: the first read on a new calendar day resets the count to
// zero and persists the new date before reporting anything.
type Tracker struct {
	store storage.Store
	clock clock.Clock
	limit int
	mu    sync.Mutex
}

func NewTracker(store storage.Store, clk clock.Clock, limit int) *Tracker {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	return &Tracker{store: store, clock: clk, limit: limit}
}

// Load returns today's consumed count, performing a rollover first if the
// persisted date is absent or stale. A malformed persisted count reads as 0.
func (t *Tracker) Load() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loadUnlocked()
}

func (t *Tracker) loadUnlocked() (int, error) {
	today := clock.DateKey(t.clock.Now())

	lastDate, ok := t.store.Get(keyLastDate)
	if !ok || lastDate != today {
		// Rollover: persist the new date and a zero count as one
		// logical update before reporting the count.
		if err := t.store.Set(keyLastDate, today); err != nil {
			return 0, fmt.Errorf("persist quota date: %w", err)
		}
		if err := t.store.Set(keyCount, "0"); err != nil {
			return 0, fmt.Errorf("persist quota count: %w", err)
		}
		return 0, nil
	}

	raw, ok := t.store.Get(keyCount)
	if !ok {
		return 0, nil
	}
	count, err := strconv.Atoi(raw)
	if err != nil || count < 0 {
		return 0, nil
	}
	return count, nil
}

// CanConsume reports whether another appraisal is allowed today.
func (t *Tracker) CanConsume() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	count, err := t.loadUnlocked()
	if err != nil {
		return false
	}
	return count < t.limit
}

// Consume increments today's count by one and persists it, returning the
// new count. It refuses to go past the limit rather than clamping.
func (t *Tracker) Consume() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	count, err := t.loadUnlocked()
	if err != nil {
		return count, err
	}
	if count >= t.limit {
		return count, ErrLimitReached
	}

	count++
	if err := t.store.Set(keyCount, strconv.Itoa(count)); err != nil {
		return count, fmt.Errorf("persist quota count: %w", err)
	}
	return count, nil
}

// Limit returns the configured daily cap.
func (t *Tracker) Limit() int {
	return t.limit
}

// Snapshot returns the current date key, consumed count and limit.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	count, _ := t.loadUnlocked()
	return Snapshot{
		Date:  clock.DateKey(t.clock.Now()),
		Count: count,
		Limit: t.limit,
	}
}
