package crm

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/model"
)

// notionPageCreator is the single notionapi call the exporter makes.
type notionPageCreator interface {
	Create(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// NotionExporter writes one tracking page per analyzed company into a Notion
// database.
type NotionExporter struct {
	pages      notionPageCreator
	databaseID string
	limiter    *rate.Limiter
}

// NewNotionExporter creates an exporter for the given integration token and
// target database. Notion caps integrations at 3 req/s.
func NewNotionExporter(token, databaseID string) *NotionExporter {
	client := notionapi.NewClient(notionapi.Token(token))
	return &NotionExporter{
		pages:      client.Page,
		databaseID: databaseID,
		limiter:    rate.NewLimiter(rate.Limit(3), 3),
	}
}

func title(s string) notionapi.TitleProperty {
	return notionapi.TitleProperty{
		Title: []notionapi.RichText{{Text: &notionapi.Text{Content: s}}},
	}
}

func text(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: s}}},
	}
}

// Export creates the tracking page. The database needs Name (title), CNPJ and
// Justificativa (rich text), Decisão and Confiança (select), and Score
// (number) properties.
func (e *NotionExporter) Export(ctx context.Context, bundle model.SignalBundle, rec *model.Recommendation, prop *model.PropensityScore) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "notion: rate limit")
	}

	name := bundle.Name
	if name == "" {
		name = bundle.CompanyID
	}

	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(e.databaseID),
		},
		Properties: notionapi.Properties{
			"Name":          title(name),
			"CNPJ":          text(bundle.CompanyID),
			"Decisão":       notionapi.SelectProperty{Select: notionapi.Option{Name: string(rec.Decision)}},
			"Confiança":     notionapi.SelectProperty{Select: notionapi.Option{Name: string(rec.Confidence)}},
			"Score":         notionapi.NumberProperty{Number: prop.Score},
			"Justificativa": text(rec.Justification),
		},
	}

	if _, err := e.pages.Create(ctx, req); err != nil {
		return eris.Wrapf(err, "notion: create page for %s", bundle.CompanyID)
	}
	return nil
}
