// Package crm pushes finished analyses into the customer-facing systems:
// Salesforce leads for the sales team and a Notion tracking database.
package crm

import (
	"context"
	"fmt"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Salesforce is the narrow API surface the lead pusher needs.
type Salesforce interface {
	Query(ctx context.Context, soql string, out any) error
	InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error)
	UpdateOne(ctx context.Context, sObjectName string, id string, fields map[string]any) error
}

// sfClient wraps go-salesforce/v3. The underlying library does not accept a
// context, so ctx only bounds the rate-limiter wait.
type sfClient struct {
	sf      *salesforce.Salesforce
	limiter *rate.Limiter
}

// SalesforceOption configures the wrapper.
type SalesforceOption func(*sfClient)

// WithRateLimit throttles API calls to rps per second.
func WithRateLimit(rps float64) SalesforceOption {
	return func(c *sfClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// NewSalesforce wraps an authenticated go-salesforce instance.
func NewSalesforce(sf *salesforce.Salesforce, opts ...SalesforceOption) Salesforce {
	c := &sfClient{sf: sf}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *sfClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *sfClient) Query(ctx context.Context, soql string, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "sf: rate limit")
	}
	if err := c.sf.Query(soql, out); err != nil {
		return eris.Wrap(err, "sf: query")
	}
	return nil
}

func (c *sfClient) InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", eris.Wrap(err, "sf: rate limit")
	}
	result, err := c.sf.InsertOne(sObjectName, record)
	if err != nil {
		return "", eris.Wrapf(err, "sf: insert %s", sObjectName)
	}
	if !result.Success {
		return "", eris.Errorf("sf: insert %s failed: %v", sObjectName, result.Errors)
	}
	return result.Id, nil
}

func (c *sfClient) UpdateOne(ctx context.Context, sObjectName string, id string, fields map[string]any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "sf: rate limit")
	}
	fields["Id"] = id
	if err := c.sf.UpdateOne(sObjectName, fields); err != nil {
		return eris.Wrapf(err, "sf: update %s %s", sObjectName, id)
	}
	return nil
}

// LeadPusher upserts analyzed companies as Salesforce Leads, keyed by the
// CNPJ custom field.
type LeadPusher struct {
	sf Salesforce
}

// NewLeadPusher creates a LeadPusher.
func NewLeadPusher(sf Salesforce) *LeadPusher {
	return &LeadPusher{sf: sf}
}

type leadRecord struct {
	ID string `json:"Id"`
}

type leadQueryResult struct {
	Records []leadRecord
}

// ratingForDecision maps the pipeline decision to the Lead Rating picklist.
func ratingForDecision(d model.Decision) string {
	switch d {
	case model.DecisionGo:
		return "Hot"
	case model.DecisionQualify:
		return "Warm"
	default:
		return "Cold"
	}
}

// Push upserts one lead and returns its Salesforce ID.
func (p *LeadPusher) Push(ctx context.Context, bundle model.SignalBundle, rec *model.Recommendation, prop *model.PropensityScore) (string, error) {
	name := bundle.Name
	if name == "" {
		name = bundle.CompanyID
	}

	fields := map[string]any{
		"Company":            name,
		"CNPJ__c":            bundle.CompanyID,
		"Rating":             ratingForDecision(rec.Decision),
		"Decisao__c":         string(rec.Decision),
		"Justificativa__c":   rec.Justification,
		"LeadSource":         "prospect-cli",
		"City":               bundle.Region,
		"Website":            bundle.WebsiteURL,
		"Score_Propensao__c": prop.Score,
		"Oferta__c":          prop.OfferID,
	}

	soql := fmt.Sprintf("SELECT Id FROM Lead WHERE CNPJ__c = '%s' LIMIT 1", bundle.CompanyID)
	var existing leadQueryResult
	if err := p.sf.Query(ctx, soql, &existing); err != nil {
		return "", eris.Wrap(err, "crm: query lead")
	}

	if len(existing.Records) > 0 {
		id := existing.Records[0].ID
		if err := p.sf.UpdateOne(ctx, "Lead", id, fields); err != nil {
			return "", eris.Wrap(err, "crm: update lead")
		}
		zap.L().Info("crm: lead updated", zap.String("company", bundle.CompanyID), zap.String("lead_id", id))
		return id, nil
	}

	id, err := p.sf.InsertOne(ctx, "Lead", fields)
	if err != nil {
		return "", eris.Wrap(err, "crm: insert lead")
	}
	zap.L().Info("crm: lead created", zap.String("company", bundle.CompanyID), zap.String("lead_id", id))
	return id, nil
}
