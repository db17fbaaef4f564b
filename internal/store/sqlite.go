package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/prospect-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	company_id  TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'queued',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS icp_profiles (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	vertical   TEXT NOT NULL,
	tier       TEXT NOT NULL,
	score      REAL NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS propensity_scores (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	offer_id   TEXT NOT NULL,
	score      REAL NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS maturity_scores (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	overall    REAL NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS vendor_fits (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	vendor     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS recommendations (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	decision   TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS cadence_executions (
	id           TEXT PRIMARY KEY,
	company_id   TEXT NOT NULL,
	cadence_id   TEXT NOT NULL,
	status       TEXT NOT NULL,
	current_step INTEGER NOT NULL DEFAULT 0,
	payload      TEXT NOT NULL,
	updated_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS alert_rules (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	kind         TEXT NOT NULL,
	severity     TEXT NOT NULL,
	params       TEXT NOT NULL,
	cooldown_sec INTEGER NOT NULL,
	enabled      INTEGER NOT NULL DEFAULT 1,
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS alert_events (
	id         TEXT PRIMARY KEY,
	rule_id    TEXT NOT NULL,
	rule_name  TEXT NOT NULL,
	severity   TEXT NOT NULL,
	message    TEXT NOT NULL,
	company_id TEXT NOT NULL DEFAULT '',
	vendor     TEXT NOT NULL DEFAULT '',
	run_id     TEXT NOT NULL DEFAULT '',
	signature  TEXT NOT NULL,
	meta       TEXT,
	delivered  INTEGER NOT NULL DEFAULT 0,
	channels   TEXT,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS heartbeats (
	job     TEXT PRIMARY KEY,
	last_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS job_locks (
	name        TEXT PRIMARY KEY,
	holder      TEXT NOT NULL,
	acquired_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS quota_events (
	id         TEXT PRIMARY KEY,
	provider   TEXT NOT NULL,
	status     INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company_id);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_icp_company ON icp_profiles(company_id, created_at);
CREATE INDEX IF NOT EXISTS idx_propensity_company ON propensity_scores(company_id);
CREATE INDEX IF NOT EXISTS idx_maturity_company ON maturity_scores(company_id, created_at);
CREATE INDEX IF NOT EXISTS idx_alert_events_rule ON alert_events(rule_name, created_at);
CREATE INDEX IF NOT EXISTS idx_quota_events_provider ON quota_events(provider, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Runs

func (s *SQLiteStore) CreateRun(ctx context.Context, companyID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, company_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, companyID, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		CompanyID: companyID,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, durationMs int64, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, duration_ms = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), durationMs, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company_id, status, duration_ms, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, company_id, status, duration_ms, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.CompanyID != "" {
		query += ` AND company_id = ?`
		args = append(args, filter.CompanyID)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) RunDurationsSince(ctx context.Context, since time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT duration_ms FROM runs WHERE created_at >= ? AND status = ?`,
		since.UTC(), string(model.RunStatusComplete),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: run durations")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var d int64
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan duration")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: run durations iterate")
}

func (s *SQLiteStore) CountFailedRunsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM runs WHERE created_at >= ? AND status = ?`,
		since.UTC(), string(model.RunStatusFailed),
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count failed runs")
}

// Scoring artifacts

func (s *SQLiteStore) SaveICPProfile(ctx context.Context, p *model.ICPProfile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal icp profile")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO icp_profiles (id, company_id, vertical, tier, score, payload, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), p.CompanyID, p.Vertical, string(p.Tier), p.Score, string(payload), p.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert icp profile")
}

func (s *SQLiteStore) GetLatestICPProfile(ctx context.Context, companyID string) (*model.ICPProfile, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM icp_profiles WHERE company_id = ? ORDER BY created_at DESC LIMIT 1`,
		companyID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get icp profile")
	}
	var p model.ICPProfile
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal icp profile")
	}
	return &p, nil
}

func (s *SQLiteStore) SavePropensityScore(ctx context.Context, sc *model.PropensityScore) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal propensity")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO propensity_scores (id, company_id, offer_id, score, payload, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), sc.CompanyID, sc.OfferID, sc.Score, string(payload), sc.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert propensity")
}

func (s *SQLiteStore) ListPropensityScores(ctx context.Context, companyID string) ([]model.PropensityScore, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM propensity_scores WHERE company_id = ? ORDER BY created_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list propensity")
	}
	defer rows.Close()

	var out []model.PropensityScore
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan propensity")
		}
		var sc model.PropensityScore
		if err := json.Unmarshal([]byte(payload), &sc); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal propensity")
		}
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list propensity iterate")
}

func (s *SQLiteStore) SaveMaturityScores(ctx context.Context, m *model.MaturityScores) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal maturity")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO maturity_scores (id, company_id, overall, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), m.CompanyID, m.Overall, string(payload), m.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert maturity")
}

// LatestMaturityPairs returns, for every company with at least two snapshots,
// the latest two ordered newest-first into (Cur, Prev).
func (s *SQLiteStore) LatestMaturityPairs(ctx context.Context) ([]MaturityPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT company_id, payload FROM maturity_scores ORDER BY company_id, created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: maturity pairs")
	}
	defer rows.Close()

	var (
		pairs   []MaturityPair
		current string
		window  []model.MaturityScores
	)
	flush := func() {
		if len(window) >= 2 {
			pairs = append(pairs, MaturityPair{CompanyID: current, Cur: window[0], Prev: window[1]})
		}
	}
	for rows.Next() {
		var companyID, payload string
		if err := rows.Scan(&companyID, &payload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan maturity pair")
		}
		if companyID != current {
			flush()
			current = companyID
			window = window[:0]
		}
		if len(window) < 2 {
			var m model.MaturityScores
			if err := json.Unmarshal([]byte(payload), &m); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal maturity")
			}
			window = append(window, m)
		}
	}
	flush()
	return pairs, eris.Wrap(rows.Err(), "sqlite: maturity pairs iterate")
}

func (s *SQLiteStore) SaveVendorFit(ctx context.Context, v *model.VendorFit) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal vendor fit")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO vendor_fits (id, company_id, vendor, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), v.CompanyID, v.Vendor, string(payload), v.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert vendor fit")
}

func (s *SQLiteStore) SaveRecommendation(ctx context.Context, r *model.Recommendation) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal recommendation")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recommendations (id, company_id, decision, payload, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), r.CompanyID, string(r.Decision), string(payload), r.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert recommendation")
}

func (s *SQLiteStore) GetLatestRecommendation(ctx context.Context, companyID string) (*model.Recommendation, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM recommendations WHERE company_id = ? ORDER BY created_at DESC LIMIT 1`,
		companyID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get recommendation")
	}
	var r model.Recommendation
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal recommendation")
	}
	return &r, nil
}

// Cadence

func (s *SQLiteStore) SaveCadenceExecution(ctx context.Context, e *model.CadenceExecution) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal cadence execution")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cadence_executions (id, company_id, cadence_id, status, current_step, payload, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET status = excluded.status, current_step = excluded.current_step, payload = excluded.payload, updated_at = excluded.updated_at`,
		e.ID, e.CompanyID, e.CadenceID, string(e.Status), e.CurrentStep, string(payload), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: upsert cadence execution")
}

func (s *SQLiteStore) AdvanceCadenceExecution(ctx context.Context, e *model.CadenceExecution, fromStep int) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal cadence execution")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE cadence_executions SET status = ?, current_step = ?, payload = ?, updated_at = ?
		 WHERE id = ? AND current_step = ?`,
		string(e.Status), e.CurrentStep, string(payload), time.Now().UTC(), e.ID, fromStep,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: advance cadence execution %s", e.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrStaleExecution, "execution %s", e.ID)
	}
	return nil
}

func (s *SQLiteStore) GetCadenceExecution(ctx context.Context, id string) (*model.CadenceExecution, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM cadence_executions WHERE id = ?`, id,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cadence execution")
	}
	var e model.CadenceExecution
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cadence execution")
	}
	return &e, nil
}

// Alerting

func (s *SQLiteStore) ListEnabledAlertRules(ctx context.Context) ([]model.AlertRule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, severity, params, cooldown_sec, enabled, created_at
		 FROM alert_rules WHERE enabled = 1 ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list alert rules")
	}
	defer rows.Close()

	var rules []model.AlertRule
	for rows.Next() {
		var (
			r      model.AlertRule
			params string
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Kind, &r.Severity, &params, &r.CooldownSec, &r.Enabled, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert rule")
		}
		if err := json.Unmarshal([]byte(params), &r.Params); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal rule params")
		}
		rules = append(rules, r)
	}
	return rules, eris.Wrap(rows.Err(), "sqlite: list alert rules iterate")
}

func (s *SQLiteStore) UpsertAlertRule(ctx context.Context, rule *model.AlertRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	params, err := json.Marshal(rule.Params)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal rule params")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alert_rules (id, name, kind, severity, params, cooldown_sec, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET kind = excluded.kind, severity = excluded.severity,
		   params = excluded.params, cooldown_sec = excluded.cooldown_sec, enabled = excluded.enabled`,
		rule.ID, rule.Name, string(rule.Kind), string(rule.Severity), string(params),
		rule.CooldownSec, rule.Enabled, rule.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: upsert alert rule")
}

func (s *SQLiteStore) InsertAlertEvent(ctx context.Context, event *model.AlertEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	meta, err := json.Marshal(event.Meta)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal event meta")
	}
	channels, err := json.Marshal(event.Channels)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal event channels")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO alert_events (id, rule_id, rule_name, severity, message, company_id, vendor, run_id, signature, meta, delivered, channels, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.RuleID, event.RuleName, string(event.Severity), event.Message,
		event.CompanyID, event.Vendor, event.RunID, event.Signature,
		string(meta), event.Delivered, string(channels), event.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert alert event")
}

func (s *SQLiteStore) UpdateAlertEventDelivery(ctx context.Context, eventID string, delivered bool, channels []model.ChannelResult) error {
	channelsJSON, err := json.Marshal(channels)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal channels")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE alert_events SET delivered = ?, channels = ? WHERE id = ?`,
		delivered, string(channelsJSON), eventID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update event delivery %s", eventID)
	}
	return checkRowsAffected(res, "alert event", eventID)
}

func (s *SQLiteStore) ListAlertEventsSince(ctx context.Context, ruleName string, since time.Time) ([]model.AlertEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rule_id, rule_name, severity, message, company_id, vendor, run_id, signature, meta, delivered, channels, created_at
		 FROM alert_events WHERE rule_name = ? AND created_at >= ? ORDER BY created_at DESC`,
		ruleName, since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list alert events")
	}
	defer rows.Close()
	return scanAlertEvents(rows)
}

func (s *SQLiteStore) ListRecentAlertEvents(ctx context.Context, limit int) ([]model.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rule_id, rule_name, severity, message, company_id, vendor, run_id, signature, meta, delivered, channels, created_at
		 FROM alert_events ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list recent alert events")
	}
	defer rows.Close()
	return scanAlertEvents(rows)
}

// Operational history

func (s *SQLiteStore) RecordHeartbeat(ctx context.Context, job string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO heartbeats (job, last_at) VALUES (?, ?)
		 ON CONFLICT(job) DO UPDATE SET last_at = excluded.last_at`,
		job, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: record heartbeat")
}

func (s *SQLiteStore) GetHeartbeat(ctx context.Context, job string) (*model.Heartbeat, error) {
	var hb model.Heartbeat
	err := s.db.QueryRowContext(ctx,
		`SELECT job, last_at FROM heartbeats WHERE job = ?`, job,
	).Scan(&hb.Job, &hb.LastAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get heartbeat")
	}
	return &hb, nil
}

func (s *SQLiteStore) AcquireLock(ctx context.Context, name, holder string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO job_locks (name, holder, acquired_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO NOTHING`,
		name, holder, time.Now().UTC(),
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: acquire lock")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: acquire lock rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) ReleaseLock(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM job_locks WHERE name = ?`, name)
	return eris.Wrap(err, "sqlite: release lock")
}

func (s *SQLiteStore) ListHeldLocks(ctx context.Context) ([]model.JobLock, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, holder, acquired_at FROM job_locks ORDER BY acquired_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list locks")
	}
	defer rows.Close()

	var locks []model.JobLock
	for rows.Next() {
		var l model.JobLock
		if err := rows.Scan(&l.Name, &l.Holder, &l.AcquiredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lock")
		}
		locks = append(locks, l)
	}
	return locks, eris.Wrap(rows.Err(), "sqlite: list locks iterate")
}

func (s *SQLiteStore) RecordQuotaEvent(ctx context.Context, provider string, status int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO quota_events (id, provider, status, created_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), provider, status, time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: record quota event")
}

func (s *SQLiteStore) CountQuotaEventsSince(ctx context.Context, provider string, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM quota_events WHERE created_at >= ?`
	args := []any{since.UTC()}
	if provider != "" {
		query += ` AND provider = ?`
		args = append(args, provider)
	}
	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count quota events")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	err := row.Scan(&r.ID, &r.CompanyID, &r.Status, &r.DurationMs, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	return &r, nil
}

func scanAlertEvents(rows *sql.Rows) ([]model.AlertEvent, error) {
	var events []model.AlertEvent
	for rows.Next() {
		var (
			e              model.AlertEvent
			meta, channels sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.RuleID, &e.RuleName, &e.Severity, &e.Message,
			&e.CompanyID, &e.Vendor, &e.RunID, &e.Signature, &meta, &e.Delivered, &channels, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan alert event")
		}
		if meta.Valid && meta.String != "" && meta.String != "null" {
			if err := json.Unmarshal([]byte(meta.String), &e.Meta); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal event meta")
			}
		}
		if channels.Valid && channels.String != "" && channels.String != "null" {
			if err := json.Unmarshal([]byte(channels.String), &e.Channels); err != nil {
				return nil, eris.Wrap(err, "sqlite: unmarshal event channels")
			}
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: alert events iterate")
}
