package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/cnpj"
)

// Confidence assigned to a website discovered via the search chain. Manually
// provided URLs keep whatever confidence the caller supplied.
const discoveredWebsiteConfidence = 70.0

const maxNewsResults = 10

// enrich fills bundle gaps from the CNPJ registry and the search chain.
// Every step is best-effort: a failed lookup leaves the field empty and the
// scorers substitute neutral values.
func (p *Pipeline) enrich(ctx context.Context, cnpjNumber string, b *model.SignalBundle, log *zap.Logger) {
	if p.registry != nil && cnpjNumber != "" {
		company, err := p.registry.Lookup(ctx, cnpjNumber)
		switch {
		case err != nil:
			log.Warn("pipeline: registry lookup failed", zap.Error(err))
		case company != nil:
			applyRegistry(b, company)
		}
	}

	if p.search == nil || b.Name == "" {
		return
	}

	if b.WebsiteURL == "" {
		hit, err := p.search.FindOfficialWebsite(ctx, b.Name, b.Region)
		switch {
		case err != nil:
			log.Warn("pipeline: website discovery failed", zap.Error(err))
		case hit != nil:
			b.WebsiteURL = hit.URL
			b.WebsiteValidated = true
			conf := discoveredWebsiteConfidence
			b.WebsiteConfidence = &conf
			log.Debug("pipeline: website discovered", zap.String("url", hit.URL))
		}
	}

	if b.RecentNewsCount == nil {
		news, err := p.search.FindRecentNews(ctx, b.Name, maxNewsResults)
		if err != nil {
			log.Warn("pipeline: news lookup failed", zap.Error(err))
			return
		}
		count := len(news)
		b.RecentNewsCount = &count
		if b.RecentSignals == nil {
			b.RecentSignals = &count
		}
	}
}

// applyRegistry copies registry facts into empty bundle fields. Caller-
// supplied values always win.
func applyRegistry(b *model.SignalBundle, c *cnpj.Company) {
	if b.Name == "" {
		if c.TradeName != "" {
			b.Name = c.TradeName
		} else {
			b.Name = c.LegalName
		}
	}
	if b.Porte == "" {
		b.Porte = c.Porte
	}
	if b.Capital == nil && c.CapitalSocial > 0 {
		capital := c.CapitalSocial
		b.Capital = &capital
	}
	if b.RegistrationStatus == "" {
		b.RegistrationStatus = c.RegistrationStatus
	}
	if b.Region == "" {
		b.Region = c.Municipality
	}
	if b.Industry == "" {
		b.Industry = c.CNAEDescription
	}
	if b.CompanyAgeYears == nil && c.OpenedAt != "" {
		if opened, err := time.Parse("2006-01-02", c.OpenedAt); err == nil {
			age := time.Since(opened).Hours() / (24 * 365.25)
			b.CompanyAgeYears = &age
		}
	}
}
