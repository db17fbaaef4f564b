package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/ingest"
	"github.com/sells-group/prospect-cli/internal/pipeline"
)

var (
	importSource      string
	importOffer       string
	importPersona     string
	importConcurrency int
	importExport      bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a lead list and analyze every company",
	Long:  "Loads companies from a CSV or XLSX file (local path, http(s):// or ftp:// URL) and runs the full analysis pipeline for each row.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("import"); err != nil {
			return err
		}
		if importExport {
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

		bundles, err := ingest.Load(ctx, importSource)
		if err != nil {
			return eris.Wrap(err, "load lead list")
		}
		if len(bundles) == 0 {
			zap.L().Warn("lead list produced no valid rows", zap.String("source", importSource))
			return nil
		}

		p := buildPipeline(st)

		persona := importPersona
		if persona == "" {
			persona = cfg.Cadence.DefaultPersona
		}
		offer := importOffer
		if offer == "" {
			offer = cfg.Scoring.DefaultOffer
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(importConcurrency)

		results := make([]*pipeline.AnalysisResult, len(bundles))
		for i, bundle := range bundles {
			g.Go(func() error {
				result, err := p.Run(gctx, pipeline.AnalyzeRequest{
					OfferID: offer,
					Persona: persona,
					Bundle:  bundle,
				})
				if err != nil {
					// One bad company does not abort the batch.
					zap.L().Error("company analysis failed",
						zap.String("company", bundle.CompanyID),
						zap.Error(err),
					)
					return nil
				}
				results[i] = result
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return eris.Wrap(err, "batch analyze")
		}

		var succeeded int
		for _, result := range results {
			if result != nil {
				succeeded++
			}
		}

		if importExport {
			for _, result := range results {
				if result == nil {
					continue
				}
				if err := exportResult(ctx, result); err != nil {
					zap.L().Error("export failed",
						zap.String("company", result.Bundle.CompanyID),
						zap.Error(err),
					)
				}
			}
		}

		zap.L().Info("import complete",
			zap.String("source", importSource),
			zap.Int("companies", len(bundles)),
			zap.Int("succeeded", succeeded),
			zap.Int("failed", len(bundles)-succeeded),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "", "lead list path or URL (required)")
	importCmd.Flags().StringVar(&importOffer, "offer", "", "offer ID to score against (default from config)")
	importCmd.Flags().StringVar(&importPersona, "persona", "", "target persona for cadence selection")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 4, "companies analyzed in parallel")
	importCmd.Flags().BoolVar(&importExport, "export", false, "push GO/QUALIFICAR results to configured CRM targets")
	_ = importCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(importCmd)
}
