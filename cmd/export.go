package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/crm"
	"github.com/sells-group/prospect-cli/internal/model"
)

var exportCNPJ string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a company's latest recommendation to the CRM",
	Long:  "Pushes the most recent analysis artifacts of a company to Salesforce and/or Notion. NO-GO recommendations are never exported.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		profile, err := st.GetLatestICPProfile(ctx, exportCNPJ)
		if err != nil {
			return eris.Wrap(err, "load icp profile")
		}
		if profile == nil {
			return eris.Errorf("no analysis found for %s, run analyze first", exportCNPJ)
		}

		rec, err := st.GetLatestRecommendation(ctx, exportCNPJ)
		if err != nil {
			return eris.Wrap(err, "load recommendation")
		}
		if rec == nil {
			return eris.Errorf("no recommendation found for %s", exportCNPJ)
		}
		if rec.Decision == model.DecisionNoGo {
			return eris.Errorf("latest recommendation for %s is NO-GO, refusing export", exportCNPJ)
		}

		scores, err := st.ListPropensityScores(ctx, exportCNPJ)
		if err != nil {
			return eris.Wrap(err, "load propensity scores")
		}
		if len(scores) == 0 {
			return eris.Errorf("no propensity score found for %s", exportCNPJ)
		}
		prop := &scores[0]

		bundle := profile.Features
		if bundle.CompanyID == "" {
			bundle.CompanyID = exportCNPJ
		}

		if cfg.Salesforce.ClientID != "" {
			sf, err := initSalesforce()
			if err != nil {
				return err
			}
			leadID, err := crm.NewLeadPusher(sf).Push(ctx, bundle, rec, prop)
			if err != nil {
				return eris.Wrap(err, "push salesforce lead")
			}
			zap.L().Info("salesforce lead upserted",
				zap.String("cnpj", exportCNPJ),
				zap.String("lead_id", leadID),
			)
		}

		if cfg.Notion.Token != "" && cfg.Notion.ProspectDB != "" {
			exporter := crm.NewNotionExporter(cfg.Notion.Token, cfg.Notion.ProspectDB)
			if err := exporter.Export(ctx, bundle, rec, prop); err != nil {
				return eris.Wrap(err, "export to notion")
			}
			zap.L().Info("notion page created", zap.String("cnpj", exportCNPJ))
		}

		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportCNPJ, "cnpj", "", "company CNPJ (required)")
	_ = exportCmd.MarkFlagRequired("cnpj")
	rootCmd.AddCommand(exportCmd)
}
