package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/prospect-cli/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:         "abc12345-6789-0000-0000-000000000000",
			CompanyID:  "11222333000181",
			Status:     model.RunStatusComplete,
			DurationMs: 4200,
			CreatedAt:  now,
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			CompanyID: "19131243000197",
			Status:    model.RunStatusFailed,
			CreatedAt: now.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "COMPANY")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "11222333000181")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "19131243000197")
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "4.2s")
}

func TestComputeRunStats(t *testing.T) {
	runs := []model.Run{
		{Status: model.RunStatusComplete, DurationMs: 1000},
		{Status: model.RunStatusComplete, DurationMs: 3000},
		{Status: model.RunStatusFailed},
		{Status: model.RunStatusRunning},
	}

	stats := computeRunStats(runs)

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Complete)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Other)
	assert.InDelta(t, 2.0, stats.AvgDurSecs, 0.001)
	assert.InDelta(t, 3.0, stats.P95DurSecs, 0.001)
}

func TestComputeRunStats_Empty(t *testing.T) {
	stats := computeRunStats(nil)
	assert.Equal(t, 0, stats.Total)
	assert.Zero(t, stats.AvgDurSecs)
	assert.Zero(t, stats.P95DurSecs)
}

func TestP95(t *testing.T) {
	assert.Equal(t, int64(10), p95([]int64{10}))
	assert.Equal(t, int64(90), p95([]int64{10, 20, 30, 90}))

	var vals []int64
	for i := int64(1); i <= 100; i++ {
		vals = append(vals, i*10)
	}
	assert.Equal(t, int64(950), p95(vals))
}

func TestFormatRunStats(t *testing.T) {
	var buf bytes.Buffer
	formatRunStats(&buf, runStats{
		Total:      10,
		Complete:   7,
		Failed:     2,
		Other:      1,
		AvgDurSecs: 3.5,
		P95DurSecs: 8.1,
	})

	output := buf.String()
	assert.Contains(t, output, "Total runs:")
	assert.Contains(t, output, "10")
	assert.Contains(t, output, "3.50s")
	assert.Contains(t, output, "8.10s")
}
