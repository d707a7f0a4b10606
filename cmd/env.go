package main

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/resume-orchestrator/internal/model"
	"github.com/sells-group/resume-orchestrator/internal/orchestrator"
	"github.com/sells-group/resume-orchestrator/internal/queue"
	"github.com/sells-group/resume-orchestrator/internal/scheduler"
	"github.com/sells-group/resume-orchestrator/internal/store"
	"github.com/sells-group/resume-orchestrator/pkg/provider"
)

// env bundles the wired collaborators for one command invocation.
type env struct {
	Store store.Store
	Queue queue.Queue
	Orch  *orchestrator.Orchestrator
}

func (e *env) Close() {
	if err := e.Queue.Close(); err != nil {
		zap.L().Warn("queue close failed", zap.Error(err))
	}
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "resume.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initQueue() (queue.Queue, error) {
	switch cfg.Queue.Driver {
	case "memory":
		return queue.NewMemory(), nil
	case "redis":
		return queue.NewRedis(cfg.Queue.RedisURL, cfg.Queue.Key)
	default:
		return nil, eris.Errorf("unsupported queue driver: %s", cfg.Queue.Driver)
	}
}

func initEnv(ctx context.Context, mode string) (*env, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	q, err := initQueue()
	if err != nil {
		st.Close()
		return nil, err
	}

	pc := provider.NewClient(cfg.Provider.BaseURL, cfg.Provider.Key,
		provider.WithRateLimit(cfg.Provider.RateLimit, cfg.Provider.Burst))

	var policy *scheduler.Policy
	if cfg.Scheduler.PolicyPath != "" {
		policy, err = scheduler.LoadPolicy(cfg.Scheduler.PolicyPath)
		if err != nil {
			st.Close()
			return nil, eris.Wrap(err, "load scheduling policy")
		}
	} else if cfg.Resume.MaxAttempts > 0 {
		policy = &scheduler.Policy{
			Defaults: scheduler.PolicyDefaults{MaxAttempts: cfg.Resume.MaxAttempts},
		}
	}

	orch := orchestrator.New(st, q, pc, policy, orchestrator.Config{
		MaxCycles:         cfg.Resume.MaxCycles,
		LowQualityCap:     cfg.Resume.LowQualityCap,
		LockLease:         cfg.Resume.LockLease(),
		RunBudget:         cfg.Resume.RunBudget(),
		RecordConcurrency: cfg.Resume.RecordConcurrency,
	})

	return &env{Store: st, Queue: q, Orch: orch}, nil
}

// resumeMessage builds an invocation message whose cycle token matches the
// session's control document, so it is not rejected as a stale delivery.
func resumeMessage(ctx context.Context, st store.Store, sessionID, reason string) (queue.Message, error) {
	msg := queue.Message{SessionID: sessionID, Reason: reason}
	ctrl, err := st.GetControl(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return msg, nil
		}
		return msg, err
	}
	msg.CycleCount = ctrl.CycleCount
	return msg, nil
}

func controlStatus(ctx context.Context, st store.Store, sessionID string) (*model.ResumeControl, error) {
	ctrl, err := st.GetControl(ctx, sessionID)
	if err != nil {
		return nil, eris.Wrapf(err, "load control for session %s", sessionID)
	}
	return ctrl, nil
}
