package alerting

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/store"
)

// Lookback windows per detector kind. Cron-gap and stuck-lock windows are
// rule-configurable; these are the fallbacks.
const (
	ingestErrorWindow = time.Hour
	quotaWindow       = time.Hour
	slowRunWindow     = 15 * time.Minute

	defaultMaxGapMinutes  = 360
	defaultMaxHeldMinutes = 20
	defaultMinDrop        = 10.0

	// Below this many finished runs the p95 is noise, not signal.
	minSlowRunSamples = 5
)

// Detection is one condition instance found by a detector. Signature holds
// the structural fields that identify the instance for dedup; Meta carries
// extra context into the persisted event.
type Detection struct {
	Message   string
	CompanyID string
	Vendor    string
	RunID     string
	Signature map[string]any
	Meta      map[string]any
}

type detectorFunc func(ctx context.Context, st store.Store, rule model.AlertRule, now time.Time) ([]Detection, error)

// detectors dispatches a rule's kind to its detector.
var detectors = map[model.AlertKind]detectorFunc{
	model.AlertIngestError:  detectIngestErrors,
	model.AlertQuota:        detectQuotaEvents,
	model.AlertSlowRun:      detectSlowRuns,
	model.AlertCronGap:      detectCronGap,
	model.AlertStuckLock:    detectStuckLocks,
	model.AlertMaturityDrop: detectMaturityDrops,
}

func detectIngestErrors(ctx context.Context, st store.Store, rule model.AlertRule, now time.Time) ([]Detection, error) {
	threshold := rule.Params.Threshold
	if threshold <= 0 {
		threshold = 1
	}

	count, err := st.CountFailedRunsSince(ctx, now.Add(-ingestErrorWindow))
	if err != nil {
		return nil, eris.Wrap(err, "alerting: count failed runs")
	}
	if count < threshold {
		return nil, nil
	}

	return []Detection{{
		Message: fmt.Sprintf("%d analysis run(s) failed in the last hour (threshold %d)", count, threshold),
		Signature: map[string]any{
			"kind":      string(model.AlertIngestError),
			"threshold": threshold,
		},
		Meta: map[string]any{"failed_count": count},
	}}, nil
}

func detectQuotaEvents(ctx context.Context, st store.Store, rule model.AlertRule, now time.Time) ([]Detection, error) {
	threshold := rule.Params.Threshold
	if threshold <= 0 {
		threshold = 1
	}

	count, err := st.CountQuotaEventsSince(ctx, rule.Params.Provider, now.Add(-quotaWindow))
	if err != nil {
		return nil, eris.Wrap(err, "alerting: count quota events")
	}
	if count < threshold {
		return nil, nil
	}

	scope := rule.Params.Provider
	if scope == "" {
		scope = "all providers"
	}
	return []Detection{{
		Message: fmt.Sprintf("%d quota/payment rejection(s) from %s in the last hour (threshold %d)", count, scope, threshold),
		Vendor:  rule.Params.Provider,
		Signature: map[string]any{
			"kind":      string(model.AlertQuota),
			"provider":  rule.Params.Provider,
			"threshold": threshold,
		},
		Meta: map[string]any{"event_count": count},
	}}, nil
}

func detectSlowRuns(ctx context.Context, st store.Store, rule model.AlertRule, now time.Time) ([]Detection, error) {
	if rule.Params.MaxP95Ms <= 0 {
		return nil, eris.New("alerting: slow_run rule missing max_p95_ms param")
	}

	durations, err := st.RunDurationsSince(ctx, now.Add(-slowRunWindow))
	if err != nil {
		return nil, eris.Wrap(err, "alerting: list run durations")
	}
	if len(durations) < minSlowRunSamples {
		return nil, nil
	}

	p95 := percentile(durations, 0.95)
	if p95 <= rule.Params.MaxP95Ms {
		return nil, nil
	}

	return []Detection{{
		Message: fmt.Sprintf("run duration p95 %dms exceeds limit %dms over the last 15 minutes (%d runs)",
			p95, rule.Params.MaxP95Ms, len(durations)),
		Signature: map[string]any{
			"kind":       string(model.AlertSlowRun),
			"max_p95_ms": rule.Params.MaxP95Ms,
		},
		Meta: map[string]any{"p95_ms": p95, "sample_count": len(durations)},
	}}, nil
}

func detectCronGap(ctx context.Context, st store.Store, rule model.AlertRule, now time.Time) ([]Detection, error) {
	if rule.Params.Job == "" {
		return nil, eris.New("alerting: cron_gap rule missing job param")
	}
	maxGap := time.Duration(rule.Params.MaxGapMinutes) * time.Minute
	if maxGap <= 0 {
		maxGap = defaultMaxGapMinutes * time.Minute
	}

	hb, err := st.GetHeartbeat(ctx, rule.Params.Job)
	if err != nil {
		return nil, eris.Wrapf(err, "alerting: heartbeat %s", rule.Params.Job)
	}
	if hb == nil {
		return []Detection{{
			Message: fmt.Sprintf("job %q has no recorded heartbeat", rule.Params.Job),
			Signature: map[string]any{
				"kind": string(model.AlertCronGap),
				"job":  rule.Params.Job,
			},
		}}, nil
	}

	gap := now.Sub(hb.LastAt)
	if gap <= maxGap {
		return nil, nil
	}
	return []Detection{{
		Message: fmt.Sprintf("job %q last completed %s ago (limit %s)",
			rule.Params.Job, gap.Round(time.Minute), maxGap),
		Signature: map[string]any{
			"kind": string(model.AlertCronGap),
			"job":  rule.Params.Job,
		},
		Meta: map[string]any{"gap_minutes": int(gap.Minutes()), "last_at": hb.LastAt},
	}}, nil
}

func detectStuckLocks(ctx context.Context, st store.Store, rule model.AlertRule, now time.Time) ([]Detection, error) {
	maxHeld := time.Duration(rule.Params.MaxHeldMinutes) * time.Minute
	if maxHeld <= 0 {
		maxHeld = defaultMaxHeldMinutes * time.Minute
	}

	locks, err := st.ListHeldLocks(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "alerting: list held locks")
	}

	var out []Detection
	for _, l := range locks {
		held := now.Sub(l.AcquiredAt)
		if held <= maxHeld {
			continue
		}
		out = append(out, Detection{
			Message: fmt.Sprintf("lock %q held by %q for %s (limit %s)",
				l.Name, l.Holder, held.Round(time.Minute), maxHeld),
			Signature: map[string]any{
				"kind":   string(model.AlertStuckLock),
				"lock":   l.Name,
				"holder": l.Holder,
			},
			Meta: map[string]any{"held_minutes": int(held.Minutes()), "acquired_at": l.AcquiredAt},
		})
	}
	return out, nil
}

func detectMaturityDrops(ctx context.Context, st store.Store, rule model.AlertRule, _ time.Time) ([]Detection, error) {
	minDrop := rule.Params.MinDrop
	if minDrop <= 0 {
		minDrop = defaultMinDrop
	}

	pairs, err := st.LatestMaturityPairs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "alerting: latest maturity pairs")
	}

	var out []Detection
	for _, p := range pairs {
		drop := p.Prev.Overall - p.Cur.Overall
		if drop < minDrop {
			continue
		}
		out = append(out, Detection{
			Message: fmt.Sprintf("maturity for company %s dropped %.0f points (%.0f → %.0f)",
				p.CompanyID, drop, p.Prev.Overall, p.Cur.Overall),
			CompanyID: p.CompanyID,
			Signature: map[string]any{
				"kind":       string(model.AlertMaturityDrop),
				"company_id": p.CompanyID,
				"prev":       p.Prev.Overall,
				"cur":        p.Cur.Overall,
			},
			Meta: map[string]any{"drop": drop},
		})
	}
	return out, nil
}

// percentile computes the pth percentile (0..1) of the given durations using
// the nearest-rank method. The input slice is not modified.
func percentile(values []int64, p float64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int64, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rank := int(math.Ceil(p * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
