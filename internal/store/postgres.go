package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/db"
	"github.com/sells-group/prospect-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool; used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for bulk import helpers.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	company_id  TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'queued',
	duration_ms BIGINT NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS icp_profiles (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	vertical   TEXT NOT NULL,
	tier       TEXT NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS propensity_scores (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	offer_id   TEXT NOT NULL,
	score      DOUBLE PRECISION NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS maturity_scores (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	overall    DOUBLE PRECISION NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vendor_fits (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	vendor     TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS recommendations (
	id         TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	decision   TEXT NOT NULL,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cadence_executions (
	id           TEXT PRIMARY KEY,
	company_id   TEXT NOT NULL,
	cadence_id   TEXT NOT NULL,
	status       TEXT NOT NULL,
	current_step INTEGER NOT NULL DEFAULT 0,
	payload      JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS alert_rules (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL UNIQUE,
	kind         TEXT NOT NULL,
	severity     TEXT NOT NULL,
	params       JSONB NOT NULL,
	cooldown_sec INTEGER NOT NULL,
	enabled      BOOLEAN NOT NULL DEFAULT true,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
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
	meta       JSONB,
	delivered  BOOLEAN NOT NULL DEFAULT false,
	channels   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS heartbeats (
	job     TEXT PRIMARY KEY,
	last_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS job_locks (
	name        TEXT PRIMARY KEY,
	holder      TEXT NOT NULL,
	acquired_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS quota_events (
	id         TEXT PRIMARY KEY,
	provider   TEXT NOT NULL,
	status     INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_company ON runs(company_id);
CREATE INDEX IF NOT EXISTS idx_icp_company ON icp_profiles(company_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_maturity_company ON maturity_scores(company_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_alert_events_rule ON alert_events(rule_name, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_quota_events_provider ON quota_events(provider, created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Runs

func (s *PostgresStore) CreateRun(ctx context.Context, companyID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, company_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, companyID, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		CompanyID: companyID,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus, durationMs int64, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, duration_ms = $2, error = $3, updated_at = $4 WHERE id = $5`,
		string(status), durationMs, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	var r model.Run
	err := s.pool.QueryRow(ctx,
		`SELECT id, company_id, status, duration_ms, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	).Scan(&r.ID, &r.CompanyID, &r.Status, &r.DurationMs, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, company_id, status, duration_ms, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.CompanyID != "" {
		query += ` AND company_id = ` + arg(filter.CompanyID)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ` + arg(filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		if err := rows.Scan(&r.ID, &r.CompanyID, &r.Status, &r.DurationMs, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) RunDurationsSince(ctx context.Context, since time.Time) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT duration_ms FROM runs WHERE created_at >= $1 AND status = $2`,
		since.UTC(), string(model.RunStatusComplete),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: run durations")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var d int64
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "postgres: scan duration")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: run durations iterate")
}

func (s *PostgresStore) CountFailedRunsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM runs WHERE created_at >= $1 AND status = $2`,
		since.UTC(), string(model.RunStatusFailed),
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count failed runs")
}

// Scoring artifacts

func (s *PostgresStore) SaveICPProfile(ctx context.Context, p *model.ICPProfile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal icp profile")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO icp_profiles (id, company_id, vertical, tier, score, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New().String(), p.CompanyID, p.Vertical, string(p.Tier), p.Score, payload, p.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert icp profile")
}

func (s *PostgresStore) GetLatestICPProfile(ctx context.Context, companyID string) (*model.ICPProfile, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM icp_profiles WHERE company_id = $1 ORDER BY created_at DESC LIMIT 1`,
		companyID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get icp profile")
	}
	var p model.ICPProfile
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal icp profile")
	}
	return &p, nil
}

func (s *PostgresStore) SavePropensityScore(ctx context.Context, sc *model.PropensityScore) error {
	payload, err := json.Marshal(sc)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal propensity")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO propensity_scores (id, company_id, offer_id, score, payload, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.New().String(), sc.CompanyID, sc.OfferID, sc.Score, payload, sc.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert propensity")
}

func (s *PostgresStore) ListPropensityScores(ctx context.Context, companyID string) ([]model.PropensityScore, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM propensity_scores WHERE company_id = $1 ORDER BY created_at DESC`,
		companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list propensity")
	}
	defer rows.Close()

	var out []model.PropensityScore
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan propensity")
		}
		var sc model.PropensityScore
		if err := json.Unmarshal(payload, &sc); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal propensity")
		}
		out = append(out, sc)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list propensity iterate")
}

func (s *PostgresStore) SaveMaturityScores(ctx context.Context, m *model.MaturityScores) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal maturity")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO maturity_scores (id, company_id, overall, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), m.CompanyID, m.Overall, payload, m.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert maturity")
}

func (s *PostgresStore) LatestMaturityPairs(ctx context.Context) ([]MaturityPair, error) {
	// rn=1 is the latest snapshot, rn=2 the previous one.
	rows, err := s.pool.Query(ctx, `
		SELECT company_id, payload FROM (
			SELECT company_id, payload,
			       row_number() OVER (PARTITION BY company_id ORDER BY created_at DESC) AS rn
			FROM maturity_scores
		) ranked WHERE rn <= 2 ORDER BY company_id, rn`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: maturity pairs")
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
		var (
			companyID string
			payload   []byte
		)
		if err := rows.Scan(&companyID, &payload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan maturity pair")
		}
		if companyID != current {
			flush()
			current = companyID
			window = window[:0]
		}
		var m model.MaturityScores
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal maturity")
		}
		window = append(window, m)
	}
	flush()
	return pairs, eris.Wrap(rows.Err(), "postgres: maturity pairs iterate")
}

func (s *PostgresStore) SaveVendorFit(ctx context.Context, v *model.VendorFit) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal vendor fit")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO vendor_fits (id, company_id, vendor, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), v.CompanyID, v.Vendor, payload, v.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert vendor fit")
}

func (s *PostgresStore) SaveRecommendation(ctx context.Context, r *model.Recommendation) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal recommendation")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO recommendations (id, company_id, decision, payload, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), r.CompanyID, string(r.Decision), payload, r.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert recommendation")
}

func (s *PostgresStore) GetLatestRecommendation(ctx context.Context, companyID string) (*model.Recommendation, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM recommendations WHERE company_id = $1 ORDER BY created_at DESC LIMIT 1`,
		companyID,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get recommendation")
	}
	var r model.Recommendation
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal recommendation")
	}
	return &r, nil
}

// Cadence

func (s *PostgresStore) SaveCadenceExecution(ctx context.Context, e *model.CadenceExecution) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal cadence execution")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO cadence_executions (id, company_id, cadence_id, status, current_step, payload, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, current_step = EXCLUDED.current_step, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		e.ID, e.CompanyID, e.CadenceID, string(e.Status), e.CurrentStep, payload, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: upsert cadence execution")
}

func (s *PostgresStore) AdvanceCadenceExecution(ctx context.Context, e *model.CadenceExecution, fromStep int) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal cadence execution")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE cadence_executions SET status = $1, current_step = $2, payload = $3, updated_at = $4
		 WHERE id = $5 AND current_step = $6`,
		string(e.Status), e.CurrentStep, payload, time.Now().UTC(), e.ID, fromStep,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: advance cadence execution %s", e.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrStaleExecution, "execution %s", e.ID)
	}
	return nil
}

func (s *PostgresStore) GetCadenceExecution(ctx context.Context, id string) (*model.CadenceExecution, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM cadence_executions WHERE id = $1`, id,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cadence execution")
	}
	var e model.CadenceExecution
	if err := json.Unmarshal(payload, &e); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cadence execution")
	}
	return &e, nil
}

// Alerting

func (s *PostgresStore) ListEnabledAlertRules(ctx context.Context) ([]model.AlertRule, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, kind, severity, params, cooldown_sec, enabled, created_at
		 FROM alert_rules WHERE enabled = true ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list alert rules")
	}
	defer rows.Close()

	var rules []model.AlertRule
	for rows.Next() {
		var (
			r      model.AlertRule
			params []byte
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Kind, &r.Severity, &params, &r.CooldownSec, &r.Enabled, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert rule")
		}
		if err := json.Unmarshal(params, &r.Params); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal rule params")
		}
		rules = append(rules, r)
	}
	return rules, eris.Wrap(rows.Err(), "postgres: list alert rules iterate")
}

func (s *PostgresStore) UpsertAlertRule(ctx context.Context, rule *model.AlertRule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	params, err := json.Marshal(rule.Params)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal rule params")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO alert_rules (id, name, kind, severity, params, cooldown_sec, enabled, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (name) DO UPDATE SET kind = EXCLUDED.kind, severity = EXCLUDED.severity,
		   params = EXCLUDED.params, cooldown_sec = EXCLUDED.cooldown_sec, enabled = EXCLUDED.enabled`,
		rule.ID, rule.Name, string(rule.Kind), string(rule.Severity), params,
		rule.CooldownSec, rule.Enabled, rule.CreatedAt,
	)
	return eris.Wrap(err, "postgres: upsert alert rule")
}

func (s *PostgresStore) InsertAlertEvent(ctx context.Context, event *model.AlertEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	meta, err := json.Marshal(event.Meta)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal event meta")
	}
	channels, err := json.Marshal(event.Channels)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal event channels")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO alert_events (id, rule_id, rule_name, severity, message, company_id, vendor, run_id, signature, meta, delivered, channels, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		event.ID, event.RuleID, event.RuleName, string(event.Severity), event.Message,
		event.CompanyID, event.Vendor, event.RunID, event.Signature,
		meta, event.Delivered, channels, event.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert alert event")
}

func (s *PostgresStore) UpdateAlertEventDelivery(ctx context.Context, eventID string, delivered bool, channels []model.ChannelResult) error {
	channelsJSON, err := json.Marshal(channels)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal channels")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE alert_events SET delivered = $1, channels = $2 WHERE id = $3`,
		delivered, channelsJSON, eventID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update event delivery %s", eventID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("alert event not found: %s", eventID)
	}
	return nil
}

func (s *PostgresStore) ListAlertEventsSince(ctx context.Context, ruleName string, since time.Time) ([]model.AlertEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, rule_id, rule_name, severity, message, company_id, vendor, run_id, signature, meta, delivered, channels, created_at
		 FROM alert_events WHERE rule_name = $1 AND created_at >= $2 ORDER BY created_at DESC`,
		ruleName, since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list alert events")
	}
	defer rows.Close()
	return scanPgAlertEvents(rows)
}

func (s *PostgresStore) ListRecentAlertEvents(ctx context.Context, limit int) ([]model.AlertEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, rule_id, rule_name, severity, message, company_id, vendor, run_id, signature, meta, delivered, channels, created_at
		 FROM alert_events ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list recent alert events")
	}
	defer rows.Close()
	return scanPgAlertEvents(rows)
}

// Operational history

func (s *PostgresStore) RecordHeartbeat(ctx context.Context, job string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO heartbeats (job, last_at) VALUES ($1, $2)
		 ON CONFLICT (job) DO UPDATE SET last_at = EXCLUDED.last_at`,
		job, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: record heartbeat")
}

func (s *PostgresStore) GetHeartbeat(ctx context.Context, job string) (*model.Heartbeat, error) {
	var hb model.Heartbeat
	err := s.pool.QueryRow(ctx,
		`SELECT job, last_at FROM heartbeats WHERE job = $1`, job,
	).Scan(&hb.Job, &hb.LastAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get heartbeat")
	}
	return &hb, nil
}

func (s *PostgresStore) AcquireLock(ctx context.Context, name, holder string) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO job_locks (name, holder, acquired_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO NOTHING`,
		name, holder, time.Now().UTC(),
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: acquire lock")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) ReleaseLock(ctx context.Context, name string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM job_locks WHERE name = $1`, name)
	return eris.Wrap(err, "postgres: release lock")
}

func (s *PostgresStore) ListHeldLocks(ctx context.Context) ([]model.JobLock, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, holder, acquired_at FROM job_locks ORDER BY acquired_at`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list locks")
	}
	defer rows.Close()

	var locks []model.JobLock
	for rows.Next() {
		var l model.JobLock
		if err := rows.Scan(&l.Name, &l.Holder, &l.AcquiredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lock")
		}
		locks = append(locks, l)
	}
	return locks, eris.Wrap(rows.Err(), "postgres: list locks iterate")
}

func (s *PostgresStore) RecordQuotaEvent(ctx context.Context, provider string, status int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO quota_events (id, provider, status, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), provider, status, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: record quota event")
}

func (s *PostgresStore) CountQuotaEventsSince(ctx context.Context, provider string, since time.Time) (int, error) {
	var n int
	var err error
	if provider != "" {
		err = s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM quota_events WHERE created_at >= $1 AND provider = $2`,
			since.UTC(), provider,
		).Scan(&n)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM quota_events WHERE created_at >= $1`,
			since.UTC(),
		).Scan(&n)
	}
	return n, eris.Wrap(err, "postgres: count quota events")
}

// helpers

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func scanPgAlertEvents(rows pgx.Rows) ([]model.AlertEvent, error) {
	var events []model.AlertEvent
	for rows.Next() {
		var (
			e              model.AlertEvent
			meta, channels []byte
		)
		if err := rows.Scan(&e.ID, &e.RuleID, &e.RuleName, &e.Severity, &e.Message,
			&e.CompanyID, &e.Vendor, &e.RunID, &e.Signature, &meta, &e.Delivered, &channels, &e.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan alert event")
		}
		if len(meta) > 0 && string(meta) != "null" {
			if err := json.Unmarshal(meta, &e.Meta); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal event meta")
			}
		}
		if len(channels) > 0 && string(channels) != "null" {
			if err := json.Unmarshal(channels, &e.Channels); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal event channels")
			}
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "postgres: alert events iterate")
}
