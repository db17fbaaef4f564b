package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/cadence"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/store"
)

var cadenceCmd = &cobra.Command{
	Use:   "cadence",
	Short: "Manage outreach cadence executions",
}

// loadExecution fetches an execution and its template from the store.
func loadExecution(cmd *cobra.Command, id string) (store.Store, *cadence.Manager, *model.CadenceExecution, *model.CadenceTemplate, error) {
	ctx := cmd.Context()

	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, nil, nil, err
	}

	exec, err := st.GetCadenceExecution(ctx, id)
	if err != nil {
		st.Close()
		return nil, nil, nil, nil, eris.Wrapf(err, "load execution %s", id)
	}

	mgr := cadence.NewManager(cadence.DefaultTemplates())
	tpl := mgr.TemplateByID(exec.CadenceID)
	if tpl == nil {
		st.Close()
		return nil, nil, nil, nil, eris.Errorf("unknown cadence template %s", exec.CadenceID)
	}

	return st, mgr, exec, tpl, nil
}

// -- cadence select --

var cadenceSelectCmd = &cobra.Command{
	Use:   "select <cnpj>",
	Short: "Show which cadence template the latest analysis would select",
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

		profile, err := st.GetLatestICPProfile(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load icp profile")
		}
		if profile == nil {
			return eris.Errorf("no analysis found for %s, run analyze first", args[0])
		}

		scores, err := st.ListPropensityScores(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "load propensity scores")
		}
		if len(scores) == 0 {
			return eris.Errorf("no propensity score found for %s", args[0])
		}

		persona, _ := cmd.Flags().GetString("persona")
		if persona == "" {
			persona = cfg.Cadence.DefaultPersona
		}

		mgr := cadence.NewManager(cadence.DefaultTemplates())
		tpl := mgr.SelectCadence(profile, scores[0].Score, persona)
		if tpl == nil {
			zap.L().Info("no cadence template fits",
				zap.String("cnpj", args[0]),
				zap.Float64("propensity", scores[0].Score),
				zap.String("persona", persona),
			)
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(tpl)
	},
}

// -- cadence advance --

var cadenceAdvanceCmd = &cobra.Command{
	Use:   "advance <execution-id>",
	Short: "Advance an execution to its next step",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, mgr, exec, tpl, err := loadExecution(cmd, args[0])
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		score, _ := cmd.Flags().GetFloat64("score")
		persona, _ := cmd.Flags().GetString("persona")
		vertical, _ := cmd.Flags().GetString("vertical")

		fromStep := exec.CurrentStep
		next, err := mgr.ExecuteNextStep(exec, tpl, cadence.StepContext{
			Score:    score,
			Vertical: vertical,
			Persona:  persona,
		})
		if err != nil {
			return eris.Wrap(err, "advance cadence")
		}

		if err := st.AdvanceCadenceExecution(ctx, exec, fromStep); err != nil {
			return eris.Wrap(err, "save execution")
		}

		if next == nil {
			zap.L().Info("cadence completed", zap.String("execution", exec.ID))
			return nil
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(next)
	},
}

// -- cadence pause / resume / stop --

func cadenceTransition(name, short string, apply func(*cadence.Manager, *model.CadenceExecution) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <execution-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, mgr, exec, _, err := loadExecution(cmd, args[0])
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			if err := apply(mgr, exec); err != nil {
				return eris.Wrapf(err, "%s cadence", name)
			}
			if err := st.SaveCadenceExecution(ctx, exec); err != nil {
				return eris.Wrap(err, "save execution")
			}

			zap.L().Info("cadence state changed",
				zap.String("execution", exec.ID),
				zap.String("status", string(exec.Status)),
			)
			return nil
		},
	}
}

func init() {
	cadenceSelectCmd.Flags().String("persona", "", "target persona (default from config)")

	cadenceAdvanceCmd.Flags().Float64("score", 0, "current propensity score for step conditions")
	cadenceAdvanceCmd.Flags().String("persona", "", "persona for step conditions")
	cadenceAdvanceCmd.Flags().String("vertical", "", "vertical for step conditions")

	cadenceCmd.AddCommand(cadenceSelectCmd)
	cadenceCmd.AddCommand(cadenceAdvanceCmd)
	cadenceCmd.AddCommand(cadenceTransition("pause", "Pause an active cadence execution", func(m *cadence.Manager, e *model.CadenceExecution) error {
		return m.PauseCadence(e)
	}))
	cadenceCmd.AddCommand(cadenceTransition("resume", "Resume a paused cadence execution", func(m *cadence.Manager, e *model.CadenceExecution) error {
		return m.ResumeCadence(e)
	}))
	cadenceCmd.AddCommand(cadenceTransition("stop", "Stop a cadence execution", func(m *cadence.Manager, e *model.CadenceExecution) error {
		return m.StopCadence(e)
	}))
	rootCmd.AddCommand(cadenceCmd)
}
