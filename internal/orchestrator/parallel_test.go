package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestParallel_BothInvokedOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	local, remote := succeeding(0.6), succeeding(0.8)
	orch := newOrchestrator(t, local, remote)

	got, err := orch.Execute(context.Background(), newTask("p1"), remediation.StrategyParallel)
	require.NoError(t, err)

	assert.Equal(t, 1, local.Calls())
	assert.Equal(t, 1, remote.Calls())
	assert.Equal(t, remediation.ProviderParallel, got.Provider)
	assert.True(t, got.Success)
	assert.InDelta(t, 0.8, *got.Confidence, 1e-9)
	assert.Equal(t, "p1", got.TaskID)
	assert.Equal(t, 1, orch.Snapshot().HybridFixes)
}

func TestParallel_TieGoesToLocal(t *testing.T) {
	defer goleak.VerifyNone(t)

	local := &stubProvider{fn: func(context.Context, *remediation.Task) (*remediation.Result, error) {
		return &remediation.Result{Success: true, Confidence: remediation.Score(0.75), Patch: "local"}, nil
	}}
	remote := &stubProvider{fn: func(context.Context, *remediation.Task) (*remediation.Result, error) {
		return &remediation.Result{Success: true, Confidence: remediation.Score(0.75), Patch: "remote"}, nil
	}}
	orch := newOrchestrator(t, local, remote)

	got, err := orch.Execute(context.Background(), newTask("p1"), remediation.StrategyParallel)
	require.NoError(t, err)
	assert.Equal(t, "local", got.Patch)
}

func TestParallel_SuccessBeatsConfidence(t *testing.T) {
	defer goleak.VerifyNone(t)

	orch := newOrchestrator(t, failing("weak"), succeeding(0.1))
	local := &stubProvider{fn: func(context.Context, *remediation.Task) (*remediation.Result, error) {
		return &remediation.Result{Success: false, Confidence: remediation.Score(0.99)}, nil
	}}
	orch.local = local

	got, err := orch.Execute(context.Background(), newTask("p1"), remediation.StrategyParallel)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, remediation.ProviderParallel, got.Provider)
}

func TestParallel_BothFail(t *testing.T) {
	tests := []struct {
		name          string
		local, remote *stubProvider
		wantParts     []string
	}{
		{
			name:      "both unsuccessful",
			local:     failing("no pattern"),
			remote:    failing("model refused"),
			wantParts: []string{"local provider: no pattern", "remote provider: model refused"},
		},
		{
			name:      "both raise",
			local:     raising(errors.New("connection refused")),
			remote:    raising(errors.New("quota exceeded")),
			wantParts: []string{"local provider: connection refused", "remote provider: quota exceeded"},
		},
		{
			name:      "one raises one unsuccessful",
			local:     panicking("boom"),
			remote:    failing("model refused"),
			wantParts: []string{"local provider: panic: boom", "remote provider: model refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)

			orch := newOrchestrator(t, tt.local, tt.remote)
			got, err := orch.Execute(context.Background(), newTask("p1"), remediation.StrategyParallel)
			require.NoError(t, err)

			assert.False(t, got.Success)
			assert.Equal(t, remediation.ProviderParallelFailed, got.Provider)
			assert.Equal(t, "p1", got.TaskID)
			assert.Contains(t, got.Error, "both local and remote providers failed")
			for _, part := range tt.wantParts {
				assert.Contains(t, got.Error, part)
			}
			assert.NotContains(t, got.Error, "\n")

			s := orch.Snapshot()
			assert.Equal(t, 1, s.FailedFixes)
			assert.Equal(t, 1, s.HybridFixes)
		})
	}
}

func TestParallel_PanicOnOneSide(t *testing.T) {
	defer goleak.VerifyNone(t)

	orch := newOrchestrator(t, panicking("nil map"), succeeding(0.4))

	got, err := orch.Execute(context.Background(), newTask("p1"), remediation.StrategyParallel)
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Equal(t, remediation.ProviderParallel, got.Provider)
}

func TestParallel_BranchTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	local := blocking(nil)
	remote := succeeding(0.3)
	orch := newOrchestrator(t, local, remote, func(c *Config) { c.ParallelTimeout = 50 * time.Millisecond })

	start := time.Now()
	got, err := orch.Execute(context.Background(), newTask("p1"), remediation.StrategyParallel)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.True(t, got.Success)
	assert.Equal(t, remediation.ProviderParallel, got.Provider)
}

func TestParallel_ZeroTimeoutUsesDefault(t *testing.T) {
	defer goleak.VerifyNone(t)

	deadlines := make(chan time.Time, 2)
	recordDeadline := func(ctx context.Context, _ *remediation.Task) (*remediation.Result, error) {
		d, _ := ctx.Deadline()
		deadlines <- d
		return &remediation.Result{Success: true, Confidence: remediation.Score(0.9)}, nil
	}
	orch, err := New(&stubProvider{fn: recordDeadline}, &stubProvider{fn: recordDeadline}, nil,
		&Config{DefaultStrategy: remediation.StrategyAdaptive}, nil)
	require.NoError(t, err)

	start := time.Now()
	_, err = orch.Execute(context.Background(), newTask("p1"), remediation.StrategyParallel)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		d := <-deadlines
		require.False(t, d.IsZero(), "branch ran without a deadline")
		assert.WithinDuration(t, start.Add(DefaultParallelTimeout), d, 5*time.Second)
	}
}

func TestParallel_BothTimeOut(t *testing.T) {
	defer goleak.VerifyNone(t)

	orch := newOrchestrator(t, blocking(nil), blocking(nil), func(c *Config) { c.ParallelTimeout = 50 * time.Millisecond })

	got, err := orch.Execute(context.Background(), newTask("p1"), remediation.StrategyParallel)
	require.NoError(t, err)

	assert.False(t, got.Success)
	assert.Equal(t, remediation.ProviderParallelFailed, got.Provider)
	assert.Contains(t, got.Error, "local provider: provider timed out")
	assert.Contains(t, got.Error, "remote provider: provider timed out")
}

func TestParallel_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan struct{}, 2)
	orch := newOrchestrator(t, blocking(started), blocking(started))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		<-started
		cancel()
	}()

	got, err := orch.Execute(ctx, newTask("p1"), remediation.StrategyParallel)
	require.NoError(t, err)

	assert.Equal(t, remediation.ProviderCancelled, got.Provider)
	assert.False(t, got.Success)
	assert.Zero(t, orch.Snapshot().TotalTasks)
}
