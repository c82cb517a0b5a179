package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nvandessel/clawback/internal/content"
	"github.com/spf13/cobra"
)

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in request scenarios",
		Long: `List the fallback scenario pool the scheduler draws from when no provider
is configured or a generation fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			tier, _ := cmd.Flags().GetInt("tier")
			trapsOnly, _ := cmd.Flags().GetBool("traps")

			all, err := content.Scenarios()
			if err != nil {
				return err
			}
			var list []content.Scenario
			for _, s := range all {
				if tier > 0 && s.Tier != tier {
					continue
				}
				if trapsOnly && !s.IsSecurityTrap {
					continue
				}
				list = append(list, s)
			}
			sort.SliceStable(list, func(i, j int) bool { return list[i].Tier < list[j].Tier })

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, map[string]any{"scenarios": list, "count": len(list)})
			}
			if len(list) == 0 {
				fmt.Fprintln(out, "No scenarios match.")
				return nil
			}
			for _, s := range list {
				trap := ""
				if s.IsSecurityTrap {
					trap = " [trap]"
				}
				fmt.Fprintf(out, "T%d %-30s %-8s %3d pts %3d ticks%s\n", s.Tier, s.Title, s.NPCID, s.BasePoints, s.DeadlineTicks, trap)
				validators := make([]string, len(s.Objectives))
				for i, o := range s.Objectives {
					validators[i] = o.Validator
				}
				fmt.Fprintf(out, "   %s\n", strings.Join(validators, ", "))
			}
			fmt.Fprintf(out, "\n%d scenario(s)\n", len(list))
			return nil
		},
	}
	cmd.Flags().Int("tier", 0, "Only show scenarios of this tier (1-4)")
	cmd.Flags().Bool("traps", false, "Only show security traps")
	return cmd
}

func newPersonasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the built-in coworker personas",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			personas, err := content.Personas()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeJSON(out, map[string]any{"personas": personas, "count": len(personas)})
			}
			for _, p := range personas {
				fmt.Fprintf(out, "%s %-10s %-22s %s\n", p.Avatar, p.ID, p.Name, p.Role)
				fmt.Fprintf(out, "   patience %.1f  tech %.1f  politeness %.1f  %s\n", p.Patience, p.TechSavvy, p.Politeness, p.Quirk)
			}
			return nil
		},
	}
}
