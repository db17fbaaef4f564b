package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/crm"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/pipeline"
)

var (
	analyzeCNPJ    string
	analyzeOffer   string
	analyzePersona string
	analyzeExport  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a single company by CNPJ",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		if analyzeExport {
			if err := cfg.Validate("export"); err != nil {
				return err
			}
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		p := buildPipeline(st)

		persona := analyzePersona
		if persona == "" {
			persona = cfg.Cadence.DefaultPersona
		}
		offer := analyzeOffer
		if offer == "" {
			offer = cfg.Scoring.DefaultOffer
		}

		result, err := p.Run(ctx, pipeline.AnalyzeRequest{
			CNPJ:    analyzeCNPJ,
			OfferID: offer,
			Persona: persona,
		})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("analysis complete",
			zap.String("cnpj", analyzeCNPJ),
			zap.String("decision", string(result.Recommendation.Decision)),
			zap.Float64("propensity", result.Propensity.Score),
			zap.Int64("duration_ms", result.DurationMs),
		)

		if analyzeExport {
			if err := exportResult(ctx, result); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

// exportResult pushes GO and QUALIFICAR results to every configured CRM
// target. NO-GO results are never exported.
func exportResult(ctx context.Context, result *pipeline.AnalysisResult) error {
	if result.Recommendation.Decision == model.DecisionNoGo {
		zap.L().Info("skipping export for NO-GO recommendation",
			zap.String("company", result.Bundle.CompanyID))
		return nil
	}

	if cfg.Salesforce.ClientID != "" {
		sf, err := initSalesforce()
		if err != nil {
			return err
		}
		pusher := crm.NewLeadPusher(sf)
		leadID, err := pusher.Push(ctx, result.Bundle, result.Recommendation, result.Propensity)
		if err != nil {
			return eris.Wrap(err, "push salesforce lead")
		}
		zap.L().Info("salesforce lead upserted", zap.String("lead_id", leadID))
	}

	if cfg.Notion.Token != "" && cfg.Notion.ProspectDB != "" {
		exporter := crm.NewNotionExporter(cfg.Notion.Token, cfg.Notion.ProspectDB)
		if err := exporter.Export(ctx, result.Bundle, result.Recommendation, result.Propensity); err != nil {
			return eris.Wrap(err, "export to notion")
		}
		zap.L().Info("notion page created", zap.String("company", result.Bundle.CompanyID))
	}

	return nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCNPJ, "cnpj", "", "company CNPJ (required)")
	analyzeCmd.Flags().StringVar(&analyzeOffer, "offer", "", "offer ID to score against (default from config)")
	analyzeCmd.Flags().StringVar(&analyzePersona, "persona", "", "target persona for cadence selection")
	analyzeCmd.Flags().BoolVar(&analyzeExport, "export", false, "push GO/QUALIFICAR results to configured CRM targets")
	_ = analyzeCmd.MarkFlagRequired("cnpj")
	rootCmd.AddCommand(analyzeCmd)
}
