package ai

import (
	"sync"
	"time"
)

// Quota is a fixed-window request budget: per minute and per calendar day.
type Quota struct {
	rpm, rpd int
	now      func() time.Time

	mu          sync.Mutex
	minuteCount int
	dayCount    int
	minuteStart time.Time
	day         time.Time
}

// NewQuota returns a budget of rpm requests per minute and rpd per day.
// Zero or negative limits are not enforced.
func NewQuota(rpm, rpd int) *Quota {
	return newQuotaAt(rpm, rpd, time.Now)
}

func newQuotaAt(rpm, rpd int, now func() time.Time) *Quota {
	t := now()
	return &Quota{rpm: rpm, rpd: rpd, now: now, minuteStart: t, day: dayOf(t)}
}

// Allow reserves one request, reporting false when either window is full.
func (q *Quota) Allow() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	t := q.now()
	if d := dayOf(t); !d.Equal(q.day) {
		q.day = d
		q.dayCount = 0
	}
	if t.Sub(q.minuteStart) >= time.Minute {
		q.minuteStart = t
		q.minuteCount = 0
	}

	if q.rpd > 0 && q.dayCount >= q.rpd {
		return false
	}
	if q.rpm > 0 && q.minuteCount >= q.rpm {
		return false
	}
	q.dayCount++
	q.minuteCount++
	return true
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
