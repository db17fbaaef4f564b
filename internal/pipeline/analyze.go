// Package pipeline orchestrates one analysis run: enrich the signal bundle,
// score it, decide, and optionally start an outreach cadence. Every artifact
// is persisted so the alert sweep and the HTTP API can read run history.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/cadence"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/recommend"
	"github.com/sells-group/prospect-cli/internal/scoring"
	"github.com/sells-group/prospect-cli/internal/search"
	"github.com/sells-group/prospect-cli/internal/store"
)

// heartbeatJob is recorded after every completed run so a cron_gap rule can
// watch the analysis schedule.
const heartbeatJob = "analyze"

// Pipeline wires the scorers, the decision stage, and persistence together.
// The search and registry collaborators are optional; when nil the bundle is
// scored as provided.
type Pipeline struct {
	store      store.Store
	search     *search.Resilient
	registry   *search.RegistryLookup
	icp        *scoring.ICPClassifier
	propensity *scoring.PropensityScorer
	maturity   *scoring.MaturityCalculator
	vendorFit  *scoring.VendorFitCalculator
	cadences   *cadence.Manager
}

// New creates a Pipeline with all dependencies.
func New(
	st store.Store,
	searcher *search.Resilient,
	registry *search.RegistryLookup,
	icp *scoring.ICPClassifier,
	propensity *scoring.PropensityScorer,
	maturity *scoring.MaturityCalculator,
	vendorFit *scoring.VendorFitCalculator,
	cadences *cadence.Manager,
) *Pipeline {
	return &Pipeline{
		store:      st,
		search:     searcher,
		registry:   registry,
		icp:        icp,
		propensity: propensity,
		maturity:   maturity,
		vendorFit:  vendorFit,
		cadences:   cadences,
	}
}

// AnalyzeRequest describes one company to analyze. CNPJ is optional when the
// bundle already carries the registry facts.
type AnalyzeRequest struct {
	CNPJ    string             `json:"cnpj,omitempty"`
	OfferID string             `json:"offer_id"`
	Persona string             `json:"persona,omitempty"`
	Bundle  model.SignalBundle `json:"bundle"`
}

// AnalysisResult bundles every artifact of one run.
type AnalysisResult struct {
	RunID          string                  `json:"run_id"`
	Bundle         model.SignalBundle      `json:"bundle"`
	ICP            *model.ICPProfile       `json:"icp"`
	Propensity     *model.PropensityScore  `json:"propensity"`
	Maturity       model.MaturityScores    `json:"maturity"`
	VendorFit      *model.VendorFit        `json:"vendor_fit"`
	Recommendation *model.Recommendation   `json:"recommendation"`
	Cadence        *model.CadenceExecution `json:"cadence,omitempty"`
	CadenceName    string                  `json:"cadence_name,omitempty"`
	DurationMs     int64                   `json:"duration_ms"`
}

// Run executes the full decision pipeline for a single company.
func (p *Pipeline) Run(ctx context.Context, req AnalyzeRequest) (*AnalysisResult, error) {
	bundle := req.Bundle
	if bundle.CompanyID == "" {
		bundle.CompanyID = req.CNPJ
	}
	if bundle.CompanyID == "" {
		return nil, eris.New("pipeline: company id or cnpj required")
	}
	if req.OfferID == "" {
		return nil, eris.New("pipeline: offer id required")
	}
	// The fallback must name a persona the template catalog actually
	// carries, or a GO decision can never start a cadence.
	persona := req.Persona
	if persona == "" {
		persona = cadence.DefaultPersona
	}

	log := zap.L().With(zap.String("company", bundle.CompanyID), zap.String("offer", req.OfferID))
	log.Info("pipeline: starting analysis")

	run, err := p.store.CreateRun(ctx, bundle.CompanyID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	start := time.Now()
	if err := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning, 0, ""); err != nil {
		log.Warn("pipeline: failed to update status", zap.Error(err))
	}

	fail := func(cause error) (*AnalysisResult, error) {
		if uerr := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed,
			time.Since(start).Milliseconds(), cause.Error()); uerr != nil {
			log.Warn("pipeline: failed to record failure", zap.Error(uerr))
		}
		return nil, cause
	}

	// Enrichment is best-effort: registry and search outages degrade the
	// bundle, they do not abort the run.
	p.enrich(ctx, req.CNPJ, &bundle, log)

	// ICP first: the remaining scorers read its vertical and score.
	profile := p.icp.Classify(bundle)
	bundle.Vertical = profile.Vertical
	icpScore := profile.Score
	bundle.ICPScore = &icpScore

	// Maturity next: the propensity pillars read the overall.
	maturity := p.maturity.Compute(bundle)
	maturity.CompanyID = bundle.CompanyID
	if bundle.MaturityScore == nil {
		overall := maturity.Overall
		bundle.MaturityScore = &overall
	}

	// Propensity and vendor fit are pure over the frozen bundle and run
	// concurrently.
	var (
		propensity *model.PropensityScore
		vendorFit  *model.VendorFit
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, calcErr := p.propensity.Calculate(bundle, req.OfferID)
		if calcErr != nil {
			return calcErr
		}
		propensity = s
		return nil
	})
	g.Go(func() error {
		vendorFit = p.vendorFit.SuggestFit(bundle, maturity)
		return nil
	})
	if err := g.Wait(); err != nil {
		return fail(eris.Wrap(err, "pipeline: scoring"))
	}

	points := recommend.IdentifyAttentionPoints(bundle)
	rec := recommend.Decide(bundle.CompanyID, propensity.Score, points)
	actionCtx := recommend.ActionContext{AttentionPoints: points}
	if vendorFit.CompetitorMigration != nil {
		actionCtx.CompetitorDetected = true
		actionCtx.CompetitorName = vendorFit.CompetitorMigration.From
	}
	rec.SuggestedActions = recommend.GenerateSuggestedActions(rec.Decision, actionCtx)

	result := &AnalysisResult{
		RunID:          run.ID,
		ICP:            profile,
		Propensity:     propensity,
		Maturity:       maturity,
		VendorFit:      vendorFit,
		Recommendation: rec,
	}

	// Outreach only starts for companies cleared to engage.
	if rec.Decision == model.DecisionGo && p.cadences != nil {
		if tpl := p.cadences.SelectCadence(profile, propensity.Score, persona); tpl != nil {
			exec := p.cadences.StartExecution(bundle.CompanyID, tpl)
			if err := p.store.SaveCadenceExecution(ctx, exec); err != nil {
				return fail(eris.Wrap(err, "pipeline: save cadence execution"))
			}
			result.Cadence = exec
			result.CadenceName = tpl.Name
			log.Info("pipeline: cadence started",
				zap.String("cadence", tpl.ID),
				zap.String("execution", exec.ID),
			)
		}
	}

	if err := p.persist(ctx, result); err != nil {
		return fail(err)
	}

	result.Bundle = bundle
	result.DurationMs = time.Since(start).Milliseconds()
	if err := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusComplete, result.DurationMs, ""); err != nil {
		log.Warn("pipeline: failed to update status", zap.Error(err))
	}
	if err := p.store.RecordHeartbeat(ctx, heartbeatJob); err != nil {
		log.Warn("pipeline: failed to record heartbeat", zap.Error(err))
	}

	log.Info("pipeline: analysis complete",
		zap.String("run_id", run.ID),
		zap.String("decision", string(rec.Decision)),
		zap.Float64("propensity", propensity.Score),
		zap.Float64("icp", profile.Score),
		zap.Int64("duration_ms", result.DurationMs),
	)
	return result, nil
}

func (p *Pipeline) persist(ctx context.Context, r *AnalysisResult) error {
	if err := p.store.SaveICPProfile(ctx, r.ICP); err != nil {
		return eris.Wrap(err, "pipeline: save icp profile")
	}
	if err := p.store.SavePropensityScore(ctx, r.Propensity); err != nil {
		return eris.Wrap(err, "pipeline: save propensity")
	}
	if err := p.store.SaveMaturityScores(ctx, &r.Maturity); err != nil {
		return eris.Wrap(err, "pipeline: save maturity")
	}
	if err := p.store.SaveVendorFit(ctx, r.VendorFit); err != nil {
		return eris.Wrap(err, "pipeline: save vendor fit")
	}
	if err := p.store.SaveRecommendation(ctx, r.Recommendation); err != nil {
		return eris.Wrap(err, "pipeline: save recommendation")
	}
	return nil
}
