package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/emiliopalmerini/soilstab/internal/domain"
	"github.com/emiliopalmerini/soilstab/internal/service"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent submissions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var historyLimit int

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of submissions to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	db, history, err := openHistory(ctx)
	if err != nil {
		return err
	}
	if db == nil {
		return errHistoryNotConfigured
	}
	defer db.Close()

	e, err := buildEngine()
	if err != nil {
		return err
	}
	svc := service.New(e, service.WithHistory(history), service.WithLogger(logger))

	subs, err := svc.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(subs) == 0 {
		fmt.Fprintln(out, "No submissions recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tCLAY\tSILT\tMOIST\tPI\tPH\tMETHOD\tSTRENGTH\tCOST")
	for _, s := range subs {
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\t%g\t%s\t%.1f\t%.2f\n",
			shortID(s.ID),
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			s.Soil.ClayPct, s.Soil.SiltPct, s.Soil.MoisturePct, s.Soil.PlasticityIndex, s.Soil.PH,
			s.Recommendation.Method,
			s.Recommendation.PredictedStrengthKPa,
			s.Recommendation.EstimatedCost)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	counts, err := svc.MethodCounts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprint(out, "\nTotals:")
	for _, m := range domain.Methods {
		fmt.Fprintf(out, "  %s %d", m, counts[m])
	}
	fmt.Fprintln(out)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
