package solver

import (
	"context"
	"sync"
)

// parallelAttempts 以不同种子并行执行多次求解尝试，
// 取最优结局。种子集合固定，结果与单线程逐一尝试一致。
func (s *RotationSolver) parallelAttempts(ctx context.Context, m *Model, workers int) *Outcome {
	type job struct {
		seed int
	}
	type attemptResult struct {
		seed    int
		outcome *Outcome
	}

	jobChan := make(chan job, workers)
	resultChan := make(chan attemptResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				select {
				case <-ctx.Done():
					return
				default:
					resultChan <- attemptResult{seed: j.seed, outcome: s.attempt(ctx, m, j.seed)}
				}
			}
		}()
	}

	go func() {
		for seed := 0; seed < workers; seed++ {
			jobChan <- job{seed: seed}
		}
		close(jobChan)
	}()

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	outcomes := make([]*Outcome, workers)
	for r := range resultChan {
		outcomes[r.seed] = r.outcome
	}

	best := pickBest(outcomes)
	if best == nil {
		// 全部尝试被时限打断
		return s.attempt(ctx, m, 0)
	}
	return best
}

// pickBest 选择最优结局：可行优先，其次惩罚最小，
// 同分取种子序最小保证确定性。
func pickBest(outcomes []*Outcome) *Outcome {
	var best *Outcome
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		if best == nil || better(o, best) {
			best = o
		}
	}
	return best
}

func better(a, b *Outcome) bool {
	if a.Feasible() != b.Feasible() {
		return a.Feasible()
	}
	if a.Status == StatusTimeout || b.Status == StatusTimeout {
		return b.Status == StatusTimeout && a.Status != StatusTimeout
	}
	if a.ConstraintResult != nil && b.ConstraintResult != nil {
		return a.ConstraintResult.TotalPenalty < b.ConstraintResult.TotalPenalty
	}
	return false
}
