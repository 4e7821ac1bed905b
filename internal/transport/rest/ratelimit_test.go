package rest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingScripter emulates the fixed-window script with an in-memory counter.
type countingScripter struct {
	counts map[string]int64
	ttls   map[string]any
	err    error
}

func newCountingScripter() *countingScripter {
	return &countingScripter{counts: map[string]int64{}, ttls: map[string]any{}}
}

func (s *countingScripter) run(ctx context.Context, keys []string, args ...interface{}) *redis.Cmd {
	cmd := redis.NewCmd(ctx)
	if s.err != nil {
		cmd.SetErr(s.err)
		return cmd
	}
	s.counts[keys[0]]++
	if s.counts[keys[0]] == 1 {
		s.ttls[keys[0]] = args[0]
	}
	cmd.SetVal(s.counts[keys[0]])
	return cmd
}

func (s *countingScripter) Eval(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args...)
}

func (s *countingScripter) EvalSha(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args...)
}

func (s *countingScripter) EvalRO(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args...)
}

func (s *countingScripter) EvalShaRO(ctx context.Context, _ string, keys []string, args ...interface{}) *redis.Cmd {
	return s.run(ctx, keys, args...)
}

func (s *countingScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	cmd := redis.NewBoolSliceCmd(ctx)
	cmd.SetVal(make([]bool, len(hashes)))
	return cmd
}

func (s *countingScripter) ScriptLoad(ctx context.Context, _ string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	cmd.SetVal("sha")
	return cmd
}

func TestRedisRateLimiter(t *testing.T) {
	ctx := context.Background()
	rdb := newCountingScripter()
	limiter := NewRedisRateLimiter(rdb, 2, 30*time.Second, "test")

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "login:10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "login:10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.Allow(ctx, "login:10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed, "keys are counted separately")

	assert.EqualValues(t, 30000, rdb.ttls["test:login:10.0.0.1"])
}

func TestRedisRateLimiterDefaultsAndErrors(t *testing.T) {
	limiter := NewRedisRateLimiter(newCountingScripter(), 0, 0, " ")
	assert.Equal(t, 20, limiter.limit)
	assert.Equal(t, time.Minute, limiter.window)
	assert.Equal(t, "rl", limiter.prefix)

	failing := newCountingScripter()
	failing.err = errors.New("connection refused")
	_, err := NewRedisRateLimiter(failing, 5, time.Second, "x").Allow(context.Background(), "k")
	assert.Error(t, err)
}
