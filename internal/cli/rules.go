package cli

import (
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective decision table",
	Long: `Print the rule model parameters in effect, as YAML.

The output is a valid parameters file: save it, edit it and point
SOILSTAB_PARAMS_FILE at it to tune the recommendations.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	p, err := loadParams()
	if err != nil {
		return err
	}
	out, err := p.YAML()
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
