package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fyrsmithlabs/fixd/internal/remediation"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// run executes task with a concrete strategy. The only errors it returns are
// the caller's context error and, for adaptive or an unknown strategy, a
// validation error.
func (o *Orchestrator) run(ctx context.Context, task *remediation.Task, strategy remediation.Strategy) (*remediation.Result, error) {
	switch strategy {
	case remediation.StrategyLocalOnly:
		return o.runSingle(ctx, o.localBranch(), task, remediation.ProviderLocal)
	case remediation.StrategyRemoteOnly:
		return o.runSingle(ctx, o.remoteBranch(), task, remediation.ProviderCloud)
	case remediation.StrategyLocalFirst:
		return o.runLocalFirst(ctx, task)
	case remediation.StrategyRemoteFirst:
		return o.runRemoteFirst(ctx, task)
	case remediation.StrategyParallel:
		return o.runParallel(ctx, task)
	case remediation.StrategyAdaptive:
		// Execute resolves adaptive before dispatch
		return nil, &remediation.ValidationError{Field: "strategy", Reason: "adaptive must be resolved before execution"}
	}
	return nil, &remediation.ValidationError{Field: "strategy", Reason: fmt.Sprintf("unknown strategy %q", strategy)}
}

// call is invoke guarded by the caller's context on both sides of the call.
func (o *Orchestrator) call(ctx context.Context, b branch, task *remediation.Task) (*remediation.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res, _ := o.invoke(ctx, b, task)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) runSingle(ctx context.Context, b branch, task *remediation.Task, tag remediation.ProviderTag) (*remediation.Result, error) {
	res, err := o.call(ctx, b, task)
	if err != nil {
		return nil, err
	}
	res.Provider = tag
	return res, nil
}

func (o *Orchestrator) runLocalFirst(ctx context.Context, task *remediation.Task) (*remediation.Result, error) {
	local, err := o.call(ctx, o.localBranch(), task)
	if err != nil {
		return nil, err
	}
	if local.Success && local.ConfidenceOr(remediation.DefaultConfidence) >= AcceptConfidence {
		local.Provider = remediation.ProviderLocal
		return local, nil
	}

	o.logger.Info(ctx, "local fix insufficient, falling back to remote",
		zap.Bool("local_success", local.Success),
		zap.Float64("local_confidence", local.ConfidenceOr(remediation.DefaultConfidence)),
	)
	remote, err := o.call(ctx, o.remoteBranch(), task)
	if err != nil {
		return nil, err
	}
	remote.Provider = remediation.ProviderHybridLocalThenCloud
	return remote, nil
}

func (o *Orchestrator) runRemoteFirst(ctx context.Context, task *remediation.Task) (*remediation.Result, error) {
	remote, err := o.call(ctx, o.remoteBranch(), task)
	if err != nil {
		return nil, err
	}
	if remote.Success {
		remote.Provider = remediation.ProviderCloud
		return remote, nil
	}

	o.logger.Info(ctx, "remote fix failed, falling back to local", zap.String("remote_error", remote.Error))
	local, err := o.call(ctx, o.localBranch(), task)
	if err != nil {
		return nil, err
	}
	local.Provider = remediation.ProviderHybridCloudThenLocal
	return local, nil
}

// runParallel starts both providers, waits for both, and keeps the better
// outcome. Neither branch cancels the other; each is bounded by the parallel
// timeout. Errors, panics and timeouts become nil outcomes.
func (o *Orchestrator) runParallel(ctx context.Context, task *remediation.Task) (*remediation.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	var (
		g                   errgroup.Group
		localRes, remoteRes *remediation.Result
		localErr, remoteErr error
	)
	g.Go(func() error {
		localRes, localErr = o.runBranch(ctx, o.localBranch(), task)
		return nil
	})
	g.Go(func() error {
		remoteRes, remoteErr = o.runBranch(ctx, o.remoteBranch(), task)
		return nil
	})

	joined := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(joined)
	}()

	select {
	case <-joined:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	best := Select(localRes, remoteRes)
	if best != nil && best.Success {
		best.Provider = remediation.ProviderParallel
		return best, nil
	}

	msg := aggregateMessage(localRes, localErr, remoteRes, remoteErr)
	o.logger.Warn(ctx, "parallel execution failed on both providers", zap.String("error", msg))
	if best == nil {
		return remediation.Failed(task.ID, remediation.ProviderParallelFailed, msg, time.Since(start)), nil
	}
	best.Provider = remediation.ProviderParallelFailed
	best.Error = msg
	return best, nil
}

// runBranch runs one parallel branch under its own timeout.
func (o *Orchestrator) runBranch(ctx context.Context, b branch, task *remediation.Task) (*remediation.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.ParallelTimeout)
	defer cancel()
	return o.invokeWithin(ctx, b, task)
}

// aggregateMessage combines the failure of each parallel branch into one line.
func aggregateMessage(local *remediation.Result, localErr error, remote *remediation.Result, remoteErr error) string {
	joined := errors.Join(
		branchFailure(sideLocal, local, localErr),
		branchFailure(sideRemote, remote, remoteErr),
	)
	return "both local and remote providers failed: " + strings.ReplaceAll(joined.Error(), "\n", "; ")
}

func branchFailure(name string, res *remediation.Result, err error) error {
	switch {
	case err != nil:
		return err
	case res != nil && res.Error != "":
		return fmt.Errorf("%s provider: %s", name, res.Error)
	default:
		return fmt.Errorf("%s provider: fix unsuccessful", name)
	}
}

func (o *Orchestrator) localBranch() branch {
	return branch{name: sideLocal, provider: o.local}
}

func (o *Orchestrator) remoteBranch() branch {
	return branch{name: sideRemote, provider: o.remote}
}
