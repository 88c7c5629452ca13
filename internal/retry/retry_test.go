package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, WithBaseDelay(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	}, WithMaxAttempts(4), WithBaseDelay(time.Millisecond))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "all 4 attempts failed")
	assert.Equal(t, 4, calls)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	fatal := errors.New("fatal")
	calls := 0
	err := Do(context.Background(), func(context.Context) error {
		calls++
		return fatal
	},
		WithBaseDelay(time.Millisecond),
		WithRetryIf(func(err error) bool { return !errors.Is(err, fatal) }),
	)
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestDoOverallTimeout(t *testing.T) {
	err := Do(context.Background(), func(context.Context) error {
		return errors.New("still failing")
	},
		WithMaxAttempts(100),
		WithBaseDelay(20*time.Millisecond),
		WithJitterFactor(0),
		WithTimeout(50*time.Millisecond),
	)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, func(context.Context) error {
		return errors.New("never retried")
	}, WithBaseDelay(time.Millisecond))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoValueReturnsLastResultWhenConditionNeverHolds(t *testing.T) {
	calls := 0
	got, err := DoValue(context.Background(), func(context.Context) (int, error) {
		calls++
		return calls, nil
	}, func(v int) bool { return v >= 10 },
		WithMaxAttempts(3), WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, 3, calls)
}

func TestDoValueStopsWhenConditionHolds(t *testing.T) {
	calls := 0
	got, err := DoValue(context.Background(), func(context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "pending", nil
		}
		return "ready", nil
	}, func(v string) bool { return v == "ready" },
		WithMaxAttempts(5), WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, "ready", got)
	assert.Equal(t, 2, calls)
}

func TestUntilTrue(t *testing.T) {
	calls := 0
	ok, err := UntilTrue(context.Background(), func(context.Context) (bool, error) {
		calls++
		return calls == 2, nil
	}, WithBaseDelay(time.Millisecond))
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, calls)
}

func TestUntilNotEmpty(t *testing.T) {
	calls := 0
	got, err := UntilNotEmpty(context.Background(), func(context.Context) (any, error) {
		calls++
		if calls < 2 {
			return []string{}, nil
		}
		return []string{"row"}, nil
	}, WithBaseDelay(time.Millisecond))
	assert.NoError(t, err)
	assert.Equal(t, []string{"row"}, got)
}

func TestDelayStrategies(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		attempt  int
		want     time.Duration
	}{
		{name: "fixed", strategy: StrategyFixed, attempt: 5, want: time.Second},
		{name: "exponential first", strategy: StrategyExponential, attempt: 1, want: time.Second},
		{name: "exponential third", strategy: StrategyExponential, attempt: 3, want: 4 * time.Second},
		{name: "linear", strategy: StrategyLinear, attempt: 3, want: 3 * time.Second},
		{name: "fibonacci sixth", strategy: StrategyFibonacci, attempt: 6, want: 8 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Options{
				BaseDelay: time.Second,
				MaxDelay:  time.Minute,
				Strategy:  tt.strategy,
			}
			assert.Equal(t, tt.want, o.Delay(tt.attempt))
		})
	}
}

func TestDelayRandomBounded(t *testing.T) {
	o := Options{BaseDelay: time.Second, MaxDelay: time.Minute, Strategy: StrategyRandom}
	for i := 0; i < 50; i++ {
		d := o.Delay(3)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 4*time.Second)
	}
}

func TestDelayClampedToMaxDelay(t *testing.T) {
	o := Options{BaseDelay: time.Second, MaxDelay: 5 * time.Second, Strategy: StrategyExponential}
	assert.Equal(t, 5*time.Second, o.Delay(10))
}

func TestDelayJitterStaysWithinFactor(t *testing.T) {
	o := Options{
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		Strategy:     StrategyFixed,
		JitterFactor: 0.1,
	}
	for i := 0; i < 50; i++ {
		d := o.Delay(1)
		assert.GreaterOrEqual(t, d, 900*time.Millisecond)
		assert.LessOrEqual(t, d, 1100*time.Millisecond)
	}
}

func TestFibonacci(t *testing.T) {
	want := []int64{1, 1, 2, 3, 5, 8, 13, 21}
	for i, w := range want {
		assert.Equal(t, w, fibonacci(i+1))
	}
}

func TestConditionMatches(t *testing.T) {
	result := map[string]any{
		"status_code": 200,
		"count":       float64(3),
		"message":     "users loaded",
		"tags":        []any{"smoke", "api"},
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{name: "eq int vs float", cond: Condition{"status_code": {OpEq: float64(200)}}, want: true},
		{name: "ne", cond: Condition{"status_code": {OpNe: 404}}, want: true},
		{name: "gt", cond: Condition{"count": {OpGt: 2}}, want: true},
		{name: "gte boundary", cond: Condition{"count": {OpGte: 3}}, want: true},
		{name: "lt fails", cond: Condition{"count": {OpLt: 3}}, want: false},
		{name: "lte boundary", cond: Condition{"count": {OpLte: 3}}, want: true},
		{name: "in", cond: Condition{"status_code": {OpIn: []any{200, 201}}}, want: true},
		{name: "not_in", cond: Condition{"status_code": {OpNotIn: []any{500, 502}}}, want: true},
		{name: "string contains", cond: Condition{"message": {OpContains: "loaded"}}, want: true},
		{name: "string not_contains fails", cond: Condition{"message": {OpNotContains: "users"}}, want: false},
		{name: "slice contains", cond: Condition{"tags": {OpContains: "smoke"}}, want: true},
		{name: "not_empty", cond: Condition{"tags": {OpNotEmpty: true}}, want: true},
		{name: "not_empty missing field", cond: Condition{"absent": {OpNotEmpty: true}}, want: false},
		{name: "missing field", cond: Condition{"absent": {OpEq: 1}}, want: false},
		{name: "multiple clauses", cond: Condition{
			"status_code": {OpEq: 200},
			"count":       {OpGt: 1, OpLt: 10},
		}, want: true},
		{name: "empty condition", cond: Condition{}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Matches(result))
		})
	}
}

func TestConditionNonMapResult(t *testing.T) {
	cond := Condition{"status_code": {OpEq: 200}}
	assert.False(t, cond.Matches("not a map"))
	assert.True(t, Condition{}.Matches("anything"))
}

func TestDoValueWithCondition(t *testing.T) {
	calls := 0
	cond := Condition{"status": {OpEq: "healthy"}}
	got, err := DoValue(context.Background(), func(context.Context) (any, error) {
		calls++
		if calls < 3 {
			return map[string]any{"status": "starting"}, nil
		}
		return map[string]any{"status": "healthy"}, nil
	}, cond.Until(), WithMaxAttempts(5), WithBaseDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "healthy", got.(map[string]any)["status"])
}
