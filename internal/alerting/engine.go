// Package alerting runs the periodic rule sweep: each enabled rule is
// dispatched to a detector over a bounded window of operational history,
// deduplicated by condition signature within the rule's cooldown, and
// delivered to every configured channel.
package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/store"
)

// sweepJob is the heartbeat name recorded after every completed sweep, so a
// cron_gap rule can watch the sweep itself.
const sweepJob = "alert-sweep"

// Engine evaluates alert rules against the store and fires events.
type Engine struct {
	store    store.Store
	channels []Channel
	nowFunc  func() time.Time
}

// NewEngine creates an Engine delivering to the given channels. A nil or
// empty channel list is allowed; events are then persisted but not sent.
func NewEngine(st store.Store, channels []Channel) *Engine {
	return &Engine{
		store:    st,
		channels: channels,
		nowFunc:  time.Now,
	}
}

// SweepStats summarizes one sweep.
type SweepStats struct {
	RulesEvaluated int `json:"rules_evaluated"`
	Fired          int `json:"fired"`
	Deduped        int `json:"deduped"`
	Errors         int `json:"errors"`
}

// RunSweep evaluates every enabled rule sequentially. A failing or panicking
// rule is logged and counted, and the remaining rules still run.
func (e *Engine) RunSweep(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	rules, err := e.store.ListEnabledAlertRules(ctx)
	if err != nil {
		return stats, eris.Wrap(err, "alerting: list enabled rules")
	}

	for _, rule := range rules {
		stats.RulesEvaluated++
		e.evaluateRule(ctx, rule, &stats)
	}

	if err := e.store.RecordHeartbeat(ctx, sweepJob); err != nil {
		zap.L().Warn("alerting: failed to record sweep heartbeat", zap.Error(err))
	}

	zap.L().Info("alerting: sweep complete",
		zap.Int("rules", stats.RulesEvaluated),
		zap.Int("fired", stats.Fired),
		zap.Int("deduped", stats.Deduped),
		zap.Int("errors", stats.Errors),
	)
	return stats, nil
}

func (e *Engine) evaluateRule(ctx context.Context, rule model.AlertRule, stats *SweepStats) {
	defer func() {
		if r := recover(); r != nil {
			stats.Errors++
			zap.L().Error("alerting: rule panicked",
				zap.String("rule", rule.Name),
				zap.Any("panic", r),
			)
		}
	}()

	detect, ok := detectors[rule.Kind]
	if !ok {
		stats.Errors++
		zap.L().Error("alerting: unknown rule kind",
			zap.String("rule", rule.Name),
			zap.String("kind", string(rule.Kind)),
		)
		return
	}

	detections, err := detect(ctx, e.store, rule, e.nowFunc())
	if err != nil {
		stats.Errors++
		zap.L().Error("alerting: detector failed",
			zap.String("rule", rule.Name),
			zap.Error(err),
		)
		return
	}

	for _, d := range detections {
		sig, err := Signature(d.Signature)
		if err != nil {
			stats.Errors++
			zap.L().Error("alerting: signature", zap.String("rule", rule.Name), zap.Error(err))
			continue
		}

		fired, err := e.alreadyFired(ctx, rule.Name, sig, rule.CooldownSec)
		if err != nil {
			stats.Errors++
			zap.L().Error("alerting: dedup scan", zap.String("rule", rule.Name), zap.Error(err))
			continue
		}
		if fired {
			stats.Deduped++
			continue
		}

		if err := e.fire(ctx, rule, d, sig); err != nil {
			stats.Errors++
			zap.L().Error("alerting: fire", zap.String("rule", rule.Name), zap.Error(err))
			continue
		}
		stats.Fired++
	}
}

// alreadyFired reports whether an event with the same signature exists for
// the rule within its cooldown window.
func (e *Engine) alreadyFired(ctx context.Context, ruleName, signature string, cooldownSec int) (bool, error) {
	if cooldownSec <= 0 {
		return false, nil
	}
	since := e.nowFunc().Add(-time.Duration(cooldownSec) * time.Second)
	events, err := e.store.ListAlertEventsSince(ctx, ruleName, since)
	if err != nil {
		return false, eris.Wrap(err, "alerting: list recent events")
	}
	for _, ev := range events {
		if ev.Signature == signature {
			return true, nil
		}
	}
	return false, nil
}

// fire persists the event, then delivers it to every channel concurrently.
// The delivered flag is set only when at least one channel was configured
// and all of them succeeded.
func (e *Engine) fire(ctx context.Context, rule model.AlertRule, d Detection, signature string) error {
	event := &model.AlertEvent{
		ID:        uuid.NewString(),
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		Severity:  rule.Severity,
		Message:   d.Message,
		CompanyID: d.CompanyID,
		Vendor:    d.Vendor,
		RunID:     d.RunID,
		Signature: signature,
		Meta:      d.Meta,
		CreatedAt: e.nowFunc().UTC(),
	}

	if err := e.store.InsertAlertEvent(ctx, event); err != nil {
		return eris.Wrap(err, "alerting: insert event")
	}

	results := make([]model.ChannelResult, len(e.channels))
	var wg sync.WaitGroup
	for i, ch := range e.channels {
		wg.Add(1)
		go func(i int, ch Channel) {
			defer wg.Done()
			results[i] = ch.Send(ctx, event)
		}(i, ch)
	}
	wg.Wait()

	// With no channels configured nothing was sent, and the flag must say
	// so rather than report a vacuous success.
	delivered := len(e.channels) > 0
	for _, r := range results {
		if !r.OK {
			delivered = false
			zap.L().Warn("alerting: channel delivery failed",
				zap.String("rule", rule.Name),
				zap.String("channel", r.Channel),
				zap.String("error", r.Error),
			)
		}
	}

	if err := e.store.UpdateAlertEventDelivery(ctx, event.ID, delivered, results); err != nil {
		return eris.Wrap(err, "alerting: update delivery")
	}

	zap.L().Info("alerting: event fired",
		zap.String("rule", rule.Name),
		zap.String("severity", string(rule.Severity)),
		zap.Bool("delivered", delivered),
	)
	return nil
}
