package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const (
	// initialBackoff は接続リトライの初回待機時間。
	initialBackoff = 1 * time.Second
	// maxBackoff は接続リトライの最大待機時間。
	maxBackoff = 30 * time.Second
)

// CalculateBackoff は失敗回数に基づいて指数バックオフの待機時間を計算する。
// 初回1秒、2倍ずつ増加、最大30秒。
func CalculateBackoff(failures int) time.Duration {
	delay := initialBackoff
	for i := 0; i < failures; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}

// ConnectWithRetry はDBが起動するまで指数バックオフで接続を再試行する。
// attemptsが1以下の場合は1回だけ試行する。ctxがキャンセルされると待機を中断する。
func ConnectWithRetry(ctx context.Context, databaseURL string, pool PoolConfig, attempts int) (*sql.DB, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		db, err := Connect(ctx, databaseURL, pool)
		if err == nil {
			return db, nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}

		delay := CalculateBackoff(i)
		slog.Warn("database not ready, retrying",
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", attempts),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database connection aborted: %w", ctx.Err())
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}
