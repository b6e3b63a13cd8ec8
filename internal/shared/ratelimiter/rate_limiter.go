// Package ratelimiter は一定期間あたりの操作回数を制限します。
package ratelimiter

import (
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、スナップショット再配信などの操作頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	WaitIfNeeded()
}

// RateLimiter は interval ごとに最大 limit 回まで操作を許可し、超過分は次の区間まで待機させます。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // interval あたりの上限
	interval  time.Duration // カウントをリセットする単位
	count     int
	lastReset time.Time
	sleep     func(time.Duration)
}

// NewRateLimiter は新しい RateLimiter を生成します。limit が 1 未満の場合は 1 として扱います。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 1
	}
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
		sleep:     time.Sleep,
	}
}

// WaitIfNeeded は上限に達しているかを確認し、必要であれば区間の終わりまで待機します。
func (rl *RateLimiter) WaitIfNeeded() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	rl.count++
	if rl.count > rl.limit {
		wait := rl.interval - now.Sub(rl.lastReset)
		if wait > 0 {
			slog.Debug("rate limit reached", "limit", rl.limit, "wait", wait)
			rl.sleep(wait)
		}
		rl.count = 1
		rl.lastReset = time.Now()
	}
}
