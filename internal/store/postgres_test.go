package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_CreateRun(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "company-1", "queued", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := st.CreateRun(context.Background(), "company-1")
	require.NoError(t, err)
	assert.Equal(t, "company-1", run.CompanyID)
	assert.Equal(t, model.RunStatusQueued, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdateRunStatus_NotFound(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("failed", int64(0), "boom", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.UpdateRunStatus(context.Background(), "missing", model.RunStatusFailed, 0, "boom")
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetHeartbeat(t *testing.T) {
	st, mock := newMockPostgres(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT job, last_at FROM heartbeats`).
		WithArgs("alert-sweep").
		WillReturnRows(pgxmock.NewRows([]string{"job", "last_at"}).AddRow("alert-sweep", now))

	hb, err := st.GetHeartbeat(context.Background(), "alert-sweep")
	require.NoError(t, err)
	require.NotNil(t, hb)
	assert.Equal(t, "alert-sweep", hb.Job)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AcquireLockHeld(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO job_locks`).
		WithArgs("analyze", "worker-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	ok, err := st.AcquireLock(context.Background(), "analyze", "worker-1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListEnabledAlertRules(t *testing.T) {
	st, mock := newMockPostgres(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "name", "kind", "severity", "params", "cooldown_sec", "enabled", "created_at"}).
		AddRow("r-1", "falhas-ingestao", "ingest_error", "high", []byte(`{"threshold":3}`), 3600, true, now)
	mock.ExpectQuery(`SELECT id, name, kind, severity, params`).WillReturnRows(rows)

	rules, err := st.ListEnabledAlertRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, model.AlertIngestError, rules[0].Kind)
	assert.Equal(t, 3, rules[0].Params.Threshold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountQuotaEvents(t *testing.T) {
	st, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM quota_events`).
		WithArgs(pgxmock.AnyArg(), "serper").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(4))

	n, err := st.CountQuotaEventsSince(context.Background(), "serper", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
