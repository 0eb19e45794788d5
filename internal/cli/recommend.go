package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/soilstab/internal/domain"
	"github.com/emiliopalmerini/soilstab/internal/service"
	"github.com/emiliopalmerini/soilstab/internal/validation"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a stabilization method for one soil sample",
	Long: `Recommend a stabilization method for one soil sample.

Budget is a level (low, medium, high) or a cost ceiling per cubic metre.
Target strength is in kPa; omit it for no minimum.

Examples:
  soilstab recommend --clay 40 --silt 30 --moisture 20 --pi 15 --ph 7 --budget high --eco
  soilstab recommend --clay 5 --silt 10 --moisture 15 --pi 2 --ph 8 --budget 120 --json`,
	Args: cobra.NoArgs,
	RunE: runRecommend,
}

var (
	recClay     string
	recSilt     string
	recMoisture string
	recPI       string
	recPH       string
	recTarget   string
	recBudget   string
	recEco      bool
	recJSON     bool
)

func init() {
	rootCmd.AddCommand(recommendCmd)
	f := recommendCmd.Flags()
	f.StringVar(&recClay, "clay", "", "Clay content in percent (0-100)")
	f.StringVar(&recSilt, "silt", "", "Silt content in percent (0-100)")
	f.StringVar(&recMoisture, "moisture", "", "Moisture content in percent (0-100)")
	f.StringVar(&recPI, "pi", "", "Plasticity index (>= 0)")
	f.StringVar(&recPH, "ph", "", "Soil pH (0-14)")
	f.StringVar(&recTarget, "target-strength", "", "Target unconfined compressive strength in kPa")
	f.StringVar(&recBudget, "budget", "medium", "Budget level (low, medium, high) or ceiling per m³")
	f.BoolVar(&recEco, "eco", false, "Prefer the lower-impact option")
	f.BoolVar(&recJSON, "json", false, "Print the result as JSON")
}

func recommendInput() validation.RawInput {
	return validation.RawInput{
		validation.FieldClay:           recClay,
		validation.FieldSilt:           recSilt,
		validation.FieldMoisture:       recMoisture,
		validation.FieldPI:             recPI,
		validation.FieldPH:             recPH,
		validation.FieldTargetStrength: recTarget,
		validation.FieldBudget:         recBudget,
		validation.FieldEco:            strconv.FormatBool(recEco),
	}
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	e, err := buildEngine()
	if err != nil {
		return err
	}
	opts := []service.Option{service.WithLogger(logger)}

	db, history, err := openHistory(ctx)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		opts = append(opts, service.WithHistory(history))
	}

	res, err := service.New(e, opts...).Recommend(ctx, "cli", recommendInput())
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			for _, v := range ve.Violations {
				fmt.Fprintf(cmd.ErrOrStderr(), "  --%s: %s\n", flagFor(v.Field), v.Message)
			}
			return fmt.Errorf("invalid input: %d field(s) rejected", len(ve.Violations))
		}
		return err
	}

	if recJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Submission.Recommendation)
	}
	printRecommendation(cmd.OutOrStdout(), res)
	return nil
}

func flagFor(field string) string {
	switch field {
	case validation.FieldClay:
		return "clay"
	case validation.FieldSilt:
		return "silt"
	case validation.FieldMoisture:
		return "moisture"
	case validation.FieldPI:
		return "pi"
	case validation.FieldPH:
		return "ph"
	case validation.FieldTargetStrength:
		return "target-strength"
	case validation.FieldEco:
		return "eco"
	}
	return field
}

func printRecommendation(out io.Writer, res *service.Result) {
	sub := res.Submission
	rec := sub.Recommendation

	fmt.Fprintf(out, "%-20s%s\n", "Method:", rec.Method)
	fmt.Fprintf(out, "%-20s%s\n", "", rec.Method.Description())
	fmt.Fprintf(out, "%-20s%.1f kPa\n", "Predicted strength:", rec.PredictedStrengthKPa)
	fmt.Fprintf(out, "%-20s%.2f /m³\n", "Estimated cost:", rec.EstimatedCost)

	if len(rec.Scores) > 0 {
		fmt.Fprintln(out, "\nSuitability:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, m := range domain.Methods {
			marker := ""
			if m == rec.Method {
				marker = "*"
			}
			fmt.Fprintf(w, "  %s\t%.0f%%\t%s\n", m, rec.Scores[m]*100, marker)
		}
		w.Flush()
	}

	if len(rec.Notes) > 0 {
		fmt.Fprintln(out, "\nNotes:")
		for _, n := range rec.Notes {
			fmt.Fprintf(out, "  - %s\n", n)
		}
	}
	if res.Saved {
		fmt.Fprintf(out, "\nSaved as %s\n", sub.ID)
	}
}
