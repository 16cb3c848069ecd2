package kafkarun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"

	"github.com/onnimonni/gridscan/internal/cache"
	"github.com/onnimonni/gridscan/internal/cache/keys"
	"github.com/onnimonni/gridscan/internal/core/config"
	"github.com/onnimonni/gridscan/internal/core/observability"
)

// Runner consumes model-run events and purges the matching cache prefix.
type Runner struct {
	log   *slog.Logger
	cfg   config.InvalidationCfg
	store cache.Store
	ver   *versionDedupe

	assigned atomic.Bool
	assignMu sync.RWMutex
	assign   map[int32]struct{}

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

func New(log *slog.Logger, cfg config.InvalidationCfg, store cache.Store) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		log:    log,
		cfg:    cfg,
		store:  store,
		ver:    newVersionDedupe(8192),
		assign: map[int32]struct{}{},
	}
}

func (r *Runner) Start(ctx context.Context) error {
	if !r.cfg.Enabled {
		r.log.Info("invalidation runner disabled")
		return nil
	}
	if r.store == nil {
		return errors.New("kafka runner: cache store is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_5_0_0
	cfg.Consumer.Group.Session.Timeout = r.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = r.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = r.cfg.RebalanceTimeout
	if r.cfg.InitialOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(r.cfg.Brokers, r.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("consumer group: %w", err)
	}

	h := &groupHandler{
		setup: func(sess sarama.ConsumerGroupSession) {
			r.assignMu.Lock()
			r.assigned.Store(true)
			r.assign = map[int32]struct{}{}
			for _, parts := range sess.Claims() {
				for _, p := range parts {
					r.assign[p] = struct{}{}
				}
			}
			r.assignMu.Unlock()
		},
		cleanup: func(sarama.ConsumerGroupSession) {
			r.assignMu.Lock()
			r.assigned.Store(false)
			r.assign = map[int32]struct{}{}
			r.assignMu.Unlock()
		},
		process: r.handleMessage,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if err := group.Close(); err != nil {
				r.log.Error("kafka consumer group close", slog.Any("err", err))
			}
		}()

		for {
			if err := group.Consume(ctx, []string{r.cfg.Topic}, h); err != nil {
				r.log.Error("kafka consume error", slog.Any("err", err))
				select {
				case <-time.After(2 * time.Second):
				case <-ctx.Done():
					return
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for err := range group.Errors() {
			r.log.Error("kafka group error", slog.Any("err", err))
		}
	}()

	r.log.Info("kafka invalidation runner started",
		slog.String("topic", r.cfg.Topic),
		slog.String("group", r.cfg.GroupID),
		slog.Any("brokers", r.cfg.Brokers))
	return nil
}

func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.log.Info("kafka invalidation runner stopped")
}

// Readiness reports whether the consumer holds a partition assignment.
func (r *Runner) Readiness() (ready bool, partitions []int32) {
	if !r.assigned.Load() {
		return false, nil
	}
	r.assignMu.RLock()
	defer r.assignMu.RUnlock()
	for p := range r.assign {
		partitions = append(partitions, p)
	}
	return true, partitions
}

func (r *Runner) handleMessage(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev RunEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		observability.IncInvalidation("error")
		return fmt.Errorf("decode run event: %w", err)
	}
	if err := ev.Validate(); err != nil {
		observability.IncInvalidation("error")
		return fmt.Errorf("validate run event: %w", err)
	}

	if !r.ver.shouldApply(ev.dedupeKey(), ev.Version) {
		observability.IncInvalidation("skip_version")
		return nil
	}

	prefix := keys.RunPrefix(ev.Model, ev.RunDate, ev.RunHour)
	deleted, err := r.store.DeletePrefix(ctx, prefix)
	if err != nil {
		observability.IncInvalidation("error")
		return fmt.Errorf("purge %s: %w", prefix, err)
	}
	observability.IncInvalidation("ok")
	r.log.Info("invalidated model run",
		slog.String("model", ev.Model),
		slog.String("run_date", ev.RunDate),
		slog.Int("run_hour", ev.RunHour),
		slog.Int("deleted", deleted))
	return nil
}

type groupHandler struct {
	setup   func(sarama.ConsumerGroupSession)
	cleanup func(sarama.ConsumerGroupSession)
	process func(context.Context, *sarama.ConsumerMessage) error
}

func (h *groupHandler) Setup(sess sarama.ConsumerGroupSession) error {
	if h.setup != nil {
		h.setup(sess)
	}
	return nil
}

func (h *groupHandler) Cleanup(sess sarama.ConsumerGroupSession) error {
	if h.cleanup != nil {
		h.cleanup(sess)
	}
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for msg := range claim.Messages() {
		if err := h.process(ctx, msg); err != nil {
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}
