package main

import (
	"fmt"
	"io"
	"os"

	"github.com/nvandessel/clawback/internal/models"
	"github.com/nvandessel/clawback/internal/scoring"
	"github.com/nvandessel/clawback/internal/session"
	"github.com/nvandessel/clawback/internal/simulation"
	"github.com/spf13/cobra"
)

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a headless shift and print the summary",
		Long: `Run a shift without real time. Background work settles before every tick,
so with no provider configured the same seed and script always produce the
same shift.

Examples:
  clawback simulate --autopilot careful --days 1
  clawback simulate --script leak.yaml --ticks 60 --json
  clawback simulate --seed 7 --difficulty hard --report ./reports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			ticks, _ := cmd.Flags().GetInt("ticks")
			scriptPath, _ := cmd.Flags().GetString("script")
			pilotName, _ := cmd.Flags().GetString("autopilot")
			reportDir, _ := cmd.Flags().GetString("report")
			verbose, _ := cmd.Flags().GetBool("events")
			keepCount, _ := cmd.Flags().GetInt("keep")
			keepFor, _ := cmd.Flags().GetString("keep-for")

			pilot, err := simulation.ParseAutopilot(pilotName)
			if err != nil {
				return err
			}
			retention, err := buildRetention(keepCount, keepFor)
			if err != nil {
				return err
			}
			if retention != nil && reportDir == "" {
				return fmt.Errorf("--keep and --keep-for need --report")
			}
			var script *simulation.Script
			if scriptPath != "" {
				if script, err = simulation.LoadScript(scriptPath); err != nil {
					return err
				}
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			rt, err := newRuntime(ctx, cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			opts, err := rt.sessionOptions()
			if err != nil {
				return err
			}
			if err := applyShiftFlags(cmd, &opts); err != nil {
				return err
			}
			// Typing delays only pace real-time play.
			opts.TypingDelayMin, opts.TypingDelayMax = 0, 0

			res, err := simulation.Run(ctx, simulation.Config{
				Session:   opts,
				Script:    script,
				Autopilot: pilot,
				Ticks:     ticks,
				Logger:    rt.logger,
			})
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}

			var reportPath string
			if reportDir != "" {
				if err := os.MkdirAll(reportDir, 0755); err != nil {
					return fmt.Errorf("failed to create report directory: %w", err)
				}
				if reportPath, err = session.SaveReport(res.Report, reportDir); err != nil {
					return err
				}
				if retention != nil {
					pruned, err := session.PruneReports(reportDir, retention)
					if err != nil {
						return fmt.Errorf("failed to prune reports: %w", err)
					}
					rt.logger.Debug("pruned shift reports", "count", len(pruned))
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				if !verbose {
					res.Events = nil
				}
				return writeJSON(out, map[string]any{"result": res, "report_path": reportPath})
			}
			if verbose {
				for _, e := range res.Events {
					printEvent(out, e)
				}
				fmt.Fprintln(out)
			}
			printSummary(out, res.Summary, res.Phase)
			fmt.Fprintf(out, "Requests:   %d spawned, %d actions taken", len(res.Requests), res.Actions)
			if n := len(res.ActionErrors); n > 0 {
				fmt.Fprintf(out, " (%d failed)", n)
			}
			fmt.Fprintln(out)
			if len(res.Violations) > 0 {
				fmt.Fprintf(out, "Violations: %d\n", len(res.Violations))
				for _, v := range res.Violations {
					fmt.Fprintf(out, "  - %s (%s) %s\n", v.Kind, v.Source, firstNonEmpty(v.Path, v.Detail))
				}
			}
			if reportPath != "" {
				fmt.Fprintf(out, "Report:     %s\n", reportPath)
			}
			return nil
		},
	}

	addShiftFlags(cmd)
	cmd.Flags().Int("ticks", 0, "Stop after this many ticks (0 runs until the shift ends)")
	cmd.Flags().String("script", "", "YAML file of scripted actions")
	cmd.Flags().String("autopilot", "idle", "Autopilot: idle, careful or reckless")
	cmd.Flags().String("report", "", "Directory to write the shift report to")
	cmd.Flags().Bool("events", false, "Include every event in the output")
	cmd.Flags().Int("keep", 0, "Keep only this many reports in --report (0 keeps all)")
	cmd.Flags().String("keep-for", "", "Delete reports in --report older than this, e.g. 30d or 2w")
	return cmd
}

// buildRetention turns the report retention flags into a policy.
// It returns nil when neither flag limits retention.
func buildRetention(keep int, keepFor string) (session.RetentionPolicy, error) {
	if keep < 0 {
		return nil, fmt.Errorf("--keep must be >= 0, got %d", keep)
	}
	var policies []session.RetentionPolicy
	if keep > 0 {
		policies = append(policies, &session.CountPolicy{MaxCount: keep})
	}
	if keepFor != "" {
		age, err := session.ParseAge(keepFor)
		if err != nil {
			return nil, fmt.Errorf("invalid --keep-for: %w", err)
		}
		policies = append(policies, &session.AgePolicy{MaxAge: age})
	}
	switch len(policies) {
	case 0:
		return nil, nil
	case 1:
		return policies[0], nil
	}
	return &session.CompositePolicy{Policies: policies}, nil
}

// addShiftFlags registers the flags that override the simulation config.
func addShiftFlags(cmd *cobra.Command) {
	cmd.Flags().String("difficulty", "", "Difficulty: easy, normal or hard (default from config)")
	cmd.Flags().Uint64("seed", 0, "Random seed (default from config, 0 picks one)")
	cmd.Flags().Int("days", -1, "Workdays in the shift, 0 runs until game over (default from config)")
	cmd.Flags().String("npc", "", "Persona id of the coworker to focus on")
}

func applyShiftFlags(cmd *cobra.Command, opts *session.Options) error {
	if cmd.Flags().Changed("difficulty") {
		name, _ := cmd.Flags().GetString("difficulty")
		d, err := models.ParseDifficulty(name)
		if err != nil {
			return err
		}
		opts.Difficulty = d
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed, _ = cmd.Flags().GetUint64("seed")
	}
	if days, _ := cmd.Flags().GetInt("days"); days >= 0 && cmd.Flags().Changed("days") {
		opts.ShiftDays = days
	}
	if npc, _ := cmd.Flags().GetString("npc"); npc != "" {
		opts.NPC = npc
	}
	return nil
}

func printSummary(w io.Writer, s scoring.Summary, phase session.Phase) {
	fmt.Fprintf(w, "Shift %s\n", phase)
	fmt.Fprintf(w, "Grade:      %s\n", s.Grade)
	fmt.Fprintf(w, "Score:      %d\n", s.TotalScore)
	fmt.Fprintf(w, "Security:   %d/%d", s.SecurityScore, models.MaxSecurity)
	if s.Compromised {
		fmt.Fprint(w, " (compromised)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Completed:  %d  Expired: %d  Failed: %d  Best streak: %d\n",
		s.RequestsCompleted, s.RequestsExpired, s.RequestsFailed, s.MaxStreak)
	fmt.Fprintf(w, "Played:     %d day(s), %d ticks\n", s.DaysPlayed, s.TotalTicks)
}

func printEvent(w io.Writer, e models.Event) {
	points := ""
	if e.Points != 0 {
		points = fmt.Sprintf(" (%+d)", e.Points)
	}
	fmt.Fprintf(w, "[d%d t%d] %-16s %s%s\n", e.Day, e.Tick, e.Kind, e.Message, points)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
