package list

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.firedancer.io/roprobe/pkg/features"
	"go.firedancer.io/roprobe/pkg/harness"
)

var Cmd = cobra.Command{
	Use:   "list",
	Short: "List built-in scenarios",
	Args:  cobra.NoArgs,
	RunE:  run,
}

var asYAML bool

func init() {
	Cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print the scenarios as a YAML suite usable with run --scenarios")
}

func run(_ *cobra.Command, _ []string) error {
	scenarios := harness.DefaultScenarios()
	if asYAML {
		return harness.WriteScenarios(os.Stdout, scenarios)
	}

	for _, sc := range scenarios {
		steps := lo.Map(sc.Steps, func(s harness.Step, _ int) string {
			return fmt.Sprintf("%s=%s", s, s.Expect)
		})
		fmt.Printf("%-26s %s\n", sc.Name, sc.Description)
		fmt.Printf("%-26s steps: %s\n", "", strings.Join(steps, ", "))
		if len(sc.Disable) > 0 {
			gates := lo.Map(sc.Disable, func(g features.FeatureGate, _ int) string { return g.Name })
			fmt.Printf("%-26s disabled: %s\n", "", strings.Join(gates, ", "))
		}
	}
	return nil
}
