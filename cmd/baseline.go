package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/zebutron/turbine-scoring-engine/internal/model"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Inspect or set the normalization baseline",
	Long: `The baseline pins the contact and lead score extremes used for
min-max normalization, so scores stay comparable across batches.
'score contacts --use-baseline' normalizes against it; '--save-baseline'
refreshes it from a batch.`,
}

// -- baseline show --

var baselineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored baseline as JSON",
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

		baseline, err := st.GetBaseline(ctx, cfg.Scoring.BaselineName)
		if err != nil {
			return eris.Wrap(err, "baseline show")
		}
		if baseline == nil {
			return eris.Errorf("baseline %q not set", cfg.Scoring.BaselineName)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(baseline)
	},
}

// -- baseline set --

var baselineSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set baseline score extremes explicitly",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		baseline := &model.Baseline{}
		set := false
		for flag, field := range map[string]**float64{
			"contact-min": &baseline.ContactScoreMin,
			"contact-max": &baseline.ContactScoreMax,
			"lead-min":    &baseline.LeadScoreMin,
			"lead-max":    &baseline.LeadScoreMax,
		} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetFloat64(flag)
				*field = &v
				set = true
			}
		}
		if !set {
			return eris.New("baseline set: at least one of --contact-min/--contact-max/--lead-min/--lead-max is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		if err := st.SaveBaseline(ctx, cfg.Scoring.BaselineName, baseline); err != nil {
			return eris.Wrap(err, "baseline set")
		}
		fmt.Printf("Baseline %q updated\n", cfg.Scoring.BaselineName)
		return nil
	},
}

// -- baseline clear --

var baselineClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the stored baseline extremes",
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

		// All-nil fields fall back to batch-relative normalization.
		if err := st.SaveBaseline(ctx, cfg.Scoring.BaselineName, &model.Baseline{}); err != nil {
			return eris.Wrap(err, "baseline clear")
		}
		fmt.Printf("Baseline %q cleared\n", cfg.Scoring.BaselineName)
		return nil
	},
}

func init() {
	baselineSetCmd.Flags().Float64("contact-min", 0, "contact score minimum")
	baselineSetCmd.Flags().Float64("contact-max", 0, "contact score maximum")
	baselineSetCmd.Flags().Float64("lead-min", 0, "lead score minimum")
	baselineSetCmd.Flags().Float64("lead-max", 0, "lead score maximum")

	baselineCmd.AddCommand(baselineShowCmd)
	baselineCmd.AddCommand(baselineSetCmd)
	baselineCmd.AddCommand(baselineClearCmd)
	rootCmd.AddCommand(baselineCmd)
}
