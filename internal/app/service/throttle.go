package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const loginAttemptPrefix = "login_attempts:"

// LoginThrottle counts failed login attempts per email in Redis and blocks
// further attempts once the configured limit is reached inside the window.
// Redis being unavailable fails open: authentication must not depend on the
// throttle backend.
type LoginThrottle struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

func NewLoginThrottle(rdb *redis.Client, limit int, window time.Duration) *LoginThrottle {
	return &LoginThrottle{rdb: rdb, limit: limit, window: window}
}

func (t *LoginThrottle) key(email string) string {
	return loginAttemptPrefix + strings.ToLower(email)
}

// Allow reports whether another login attempt for email may proceed.
func (t *LoginThrottle) Allow(ctx context.Context, email string) bool {
	if t == nil || t.rdb == nil || t.limit <= 0 {
		return true
	}
	count, err := t.rdb.Get(ctx, t.key(email)).Int()
	if err != nil {
		if err != redis.Nil {
			log.Printf("login throttle read failed, allowing attempt: %v", err)
		}
		return true
	}
	return count < t.limit
}

// RecordFailure bumps the failed-attempt counter. The window starts at the
// first failure and is not extended by later ones.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) {
	if t == nil || t.rdb == nil {
		return
	}
	count, err := t.rdb.Incr(ctx, t.key(email)).Result()
	if err != nil {
		log.Printf("login throttle increment failed: %v", err)
		return
	}
	if count == 1 {
		if err := t.rdb.Expire(ctx, t.key(email), t.window).Err(); err != nil {
			log.Printf("login throttle expire failed: %v", err)
		}
	}
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, email string) {
	if t == nil || t.rdb == nil {
		return
	}
	if err := t.rdb.Del(ctx, t.key(email)).Err(); err != nil {
		log.Printf("login throttle reset failed: %v", err)
	}
}
