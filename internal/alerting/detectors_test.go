package alerting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func TestDetectQuotaPerProvider(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, st.RecordQuotaEvent(ctx, "serper", 429))
	require.NoError(t, st.RecordQuotaEvent(ctx, "serper", 429))
	require.NoError(t, st.RecordQuotaEvent(ctx, "brave", 402))

	rule := model.AlertRule{
		Name:   "quota-serper",
		Kind:   model.AlertQuota,
		Params: model.AlertRuleParams{Threshold: 2, Provider: "serper"},
	}
	dets, err := detectQuotaEvents(ctx, st, rule, now)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "serper", dets[0].Vendor)
	assert.Equal(t, "serper", dets[0].Signature["provider"])

	// brave has a single event, below the threshold.
	rule.Params.Provider = "brave"
	dets, err = detectQuotaEvents(ctx, st, rule, now)
	require.NoError(t, err)
	assert.Empty(t, dets)

	// Empty provider counts across all providers.
	rule.Params = model.AlertRuleParams{Threshold: 3}
	dets, err = detectQuotaEvents(ctx, st, rule, now)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Contains(t, dets[0].Message, "all providers")
}

func TestDetectSlowRuns(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	for _, d := range []int64{100, 120, 110, 130, 90} {
		completeRun(t, st, "11222333000181", d)
	}
	completeRun(t, st, "11222333000181", 90_000)

	rule := model.AlertRule{
		Name:   "runs-lentos",
		Kind:   model.AlertSlowRun,
		Params: model.AlertRuleParams{MaxP95Ms: 5_000},
	}
	dets, err := detectSlowRuns(ctx, st, rule, now)
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, int64(90_000), dets[0].Meta["p95_ms"])

	// Raising the limit above the observed p95 silences the detector.
	rule.Params.MaxP95Ms = 100_000
	dets, err = detectSlowRuns(ctx, st, rule, now)
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestDetectSlowRunsNeedsSamples(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	completeRun(t, st, "11222333000181", 90_000)
	completeRun(t, st, "11222333000181", 95_000)

	rule := model.AlertRule{Params: model.AlertRuleParams{MaxP95Ms: 1_000}}
	dets, err := detectSlowRuns(ctx, st, rule, time.Now())
	require.NoError(t, err)
	assert.Empty(t, dets, "fewer than %d runs is not enough signal", minSlowRunSamples)
}

func TestDetectSlowRunsRequiresLimit(t *testing.T) {
	st := newTestStore(t)
	_, err := detectSlowRuns(context.Background(), st, model.AlertRule{}, time.Now())
	assert.Error(t, err)
}

func TestDetectCronGap(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.RecordHeartbeat(ctx, "nightly-import"))

	rule := model.AlertRule{
		Name:   "gap-import",
		Kind:   model.AlertCronGap,
		Params: model.AlertRuleParams{Job: "nightly-import", MaxGapMinutes: 60},
	}

	// Fresh heartbeat: no gap.
	dets, err := detectCronGap(ctx, st, rule, time.Now())
	require.NoError(t, err)
	assert.Empty(t, dets)

	// Two hours later the 60-minute limit is breached.
	dets, err = detectCronGap(ctx, st, rule, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "nightly-import", dets[0].Signature["job"])
}

func TestDetectCronGapMissingHeartbeat(t *testing.T) {
	st := newTestStore(t)

	rule := model.AlertRule{Params: model.AlertRuleParams{Job: "never-ran"}}
	dets, err := detectCronGap(context.Background(), st, rule, time.Now())
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Contains(t, dets[0].Message, "no recorded heartbeat")
}

func TestDetectCronGapRequiresJob(t *testing.T) {
	st := newTestStore(t)
	_, err := detectCronGap(context.Background(), st, model.AlertRule{}, time.Now())
	assert.Error(t, err)
}

func TestDetectStuckLocks(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ok, err := st.AcquireLock(ctx, "import-lock", "worker-1")
	require.NoError(t, err)
	require.True(t, ok)

	rule := model.AlertRule{Params: model.AlertRuleParams{MaxHeldMinutes: 20}}

	dets, err := detectStuckLocks(ctx, st, rule, time.Now())
	require.NoError(t, err)
	assert.Empty(t, dets, "freshly acquired lock is not stuck")

	dets, err = detectStuckLocks(ctx, st, rule, time.Now().Add(30*time.Minute))
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "import-lock", dets[0].Signature["lock"])
	assert.Equal(t, "worker-1", dets[0].Signature["holder"])

	// Released locks no longer alert.
	require.NoError(t, st.ReleaseLock(ctx, "import-lock"))
	dets, err = detectStuckLocks(ctx, st, rule, time.Now().Add(30*time.Minute))
	require.NoError(t, err)
	assert.Empty(t, dets)
}

func TestDetectMaturityDrops(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	save := func(companyID string, overall float64, at time.Time) {
		require.NoError(t, st.SaveMaturityScores(ctx, &model.MaturityScores{
			CompanyID: companyID,
			Overall:   overall,
			CreatedAt: at,
		}))
	}

	// Sharp drop for the first company, mild wobble for the second.
	save("11222333000181", 80, base)
	save("11222333000181", 52, base.Add(30*time.Minute))
	save("99888777000166", 70, base)
	save("99888777000166", 68, base.Add(30*time.Minute))

	rule := model.AlertRule{Params: model.AlertRuleParams{MinDrop: 20}}
	dets, err := detectMaturityDrops(ctx, st, rule, time.Now())
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, "11222333000181", dets[0].CompanyID)
	assert.Equal(t, float64(80), dets[0].Signature["prev"])
	assert.Equal(t, float64(52), dets[0].Signature["cur"])
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		p      float64
		want   int64
	}{
		{"empty", nil, 0.95, 0},
		{"single", []int64{42}, 0.95, 42},
		{"p95 of six", []int64{100, 120, 110, 130, 90, 90000}, 0.95, 90000},
		{"median of five", []int64{5, 1, 3, 2, 4}, 0.5, 3},
		{"p95 of twenty", func() []int64 {
			v := make([]int64, 20)
			for i := range v {
				v[i] = int64(i + 1)
			}
			return v
		}(), 0.95, 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, percentile(tt.values, tt.p))
		})
	}
}
