package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/alerting"
	"github.com/sells-group/prospect-cli/internal/model"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Manage alert rules and run sweeps",
}

// -- alerts sweep --

var alertsSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Evaluate all enabled alert rules once",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("alerts"); err != nil {
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

		engine := alerting.NewEngine(st, buildAlertChannels())
		stats, err := engine.RunSweep(ctx)
		if err != nil {
			return eris.Wrap(err, "alert sweep")
		}

		zap.L().Info("sweep complete",
			zap.Int("rules", stats.RulesEvaluated),
			zap.Int("fired", stats.Fired),
			zap.Int("deduped", stats.Deduped),
			zap.Int("errors", stats.Errors),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

// -- alerts watch --

var alertsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the alert sweep loop in the foreground",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("alerts"); err != nil {
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

		engine := alerting.NewEngine(st, buildAlertChannels())
		checker := alerting.NewChecker(engine, time.Duration(cfg.Alerting.SweepIntervalSecs)*time.Second)
		checker.Run(ctx)
		return nil
	},
}

// -- alerts rule --

var (
	ruleKind       string
	ruleSeverity   string
	ruleCooldown   int
	ruleDisabled   bool
	ruleThreshold  int
	ruleMinDrop    float64
	ruleMaxP95Ms   int64
	ruleMaxGapMin  int
	ruleMaxHeldMin int
	ruleJob        string
	ruleProvider   string
)

var alertsRuleCmd = &cobra.Command{
	Use:   "rule <name>",
	Short: "Create or update an alert rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		rule := &model.AlertRule{
			Name:        args[0],
			Kind:        model.AlertKind(ruleKind),
			Severity:    model.AlertSeverity(ruleSeverity),
			CooldownSec: ruleCooldown,
			Enabled:     !ruleDisabled,
			Params: model.AlertRuleParams{
				Threshold:      ruleThreshold,
				MinDrop:        ruleMinDrop,
				MaxP95Ms:       ruleMaxP95Ms,
				MaxGapMinutes:  ruleMaxGapMin,
				MaxHeldMinutes: ruleMaxHeldMin,
				Job:            ruleJob,
				Provider:       ruleProvider,
			},
		}

		if err := st.UpsertAlertRule(ctx, rule); err != nil {
			return eris.Wrap(err, "upsert alert rule")
		}

		zap.L().Info("alert rule saved",
			zap.String("name", rule.Name),
			zap.String("kind", string(rule.Kind)),
			zap.Bool("enabled", rule.Enabled),
		)
		return nil
	},
}

// -- alerts list --

var alertsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent alert events",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		limit, _ := cmd.Flags().GetInt("limit")
		events, err := st.ListRecentAlertEvents(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "list alert events")
		}

		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No alert events found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, "RULE\tSEVERITY\tDELIVERED\tCREATED\tMESSAGE")
		for _, e := range events {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%v\t%s\t%s\n",
				e.RuleName,
				e.Severity,
				e.Delivered,
				e.CreatedAt.Format(time.RFC3339),
				e.Message,
			)
		}
		return w.Flush()
	},
}

func init() {
	alertsRuleCmd.Flags().StringVar(&ruleKind, "kind", "", "rule kind: ingest_error, maturity_drop, slow_run, cron_gap, stuck_lock, quota (required)")
	alertsRuleCmd.Flags().StringVar(&ruleSeverity, "severity", "medium", "severity: critical, high, medium, low")
	alertsRuleCmd.Flags().IntVar(&ruleCooldown, "cooldown", 3600, "dedup cooldown in seconds")
	alertsRuleCmd.Flags().BoolVar(&ruleDisabled, "disabled", false, "save the rule disabled")
	alertsRuleCmd.Flags().IntVar(&ruleThreshold, "threshold", 0, "min occurrences (ingest_error, quota)")
	alertsRuleCmd.Flags().Float64Var(&ruleMinDrop, "min-drop", 0, "min maturity drop in points (maturity_drop)")
	alertsRuleCmd.Flags().Int64Var(&ruleMaxP95Ms, "max-p95-ms", 0, "p95 duration ceiling in ms (slow_run)")
	alertsRuleCmd.Flags().IntVar(&ruleMaxGapMin, "max-gap-minutes", 0, "heartbeat gap ceiling in minutes (cron_gap)")
	alertsRuleCmd.Flags().IntVar(&ruleMaxHeldMin, "max-held-minutes", 0, "lock hold ceiling in minutes (stuck_lock)")
	alertsRuleCmd.Flags().StringVar(&ruleJob, "job", "", "heartbeat job name (cron_gap)")
	alertsRuleCmd.Flags().StringVar(&ruleProvider, "provider", "", "restrict to one search provider (quota)")
	_ = alertsRuleCmd.MarkFlagRequired("kind")

	alertsListCmd.Flags().Int("limit", 50, "max number of events to display")

	alertsCmd.AddCommand(alertsSweepCmd)
	alertsCmd.AddCommand(alertsWatchCmd)
	alertsCmd.AddCommand(alertsRuleCmd)
	alertsCmd.AddCommand(alertsListCmd)
	rootCmd.AddCommand(alertsCmd)
}
