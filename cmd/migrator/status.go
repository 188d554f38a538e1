package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"script-migrator/internal/repository"
	"script-migrator/internal/usecase"
)

// statusCmd は次回実行時に適用されるスクリプトを表示する。データベースには接続しない。
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <connection>... <scriptsDir>",
		Short: "Show pending scripts without executing them",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			scriptsDir := args[len(args)-1]
			resolver, closeResolver := newResolver(cfg)
			defer closeResolver()
			targets, err := resolver.ResolveAll(ctx, args[:len(args)-1])
			if err != nil {
				return err
			}

			scripts := repository.NewScriptRepository(scriptsDir)
			statusService := usecase.NewStatusService(
				usecase.NewMigrationService(scripts),
				repository.NewTrackingRepository(scriptsDir),
				scripts,
			)

			statuses, err := statusService.PlanTargets(ctx, targets)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			w := cmd.OutOrStdout()
			if output == "json" {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(statuses)
			}

			tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "IDENTITY\tFULL RUN\tAPPLIED\tPENDING")
			fmt.Fprintln(tw, "--------\t--------\t-------\t-------")
			for _, s := range statuses {
				var pending []string
				if s.Plan.Full != nil {
					pending = append(pending, s.Plan.Full.Name)
				}
				for _, p := range s.Plan.Partials {
					pending = append(pending, p.Name)
				}
				pendingText := "-"
				if len(pending) > 0 {
					pendingText = strings.Join(pending, ", ")
				}
				fmt.Fprintf(tw, "%s\t%t\t%d\t%s\n", s.Identity, s.FullRun, len(s.Scripts), pendingText)
			}
			if err := tw.Flush(); err != nil {
				return fmt.Errorf("failed to flush output: %w", err)
			}
			return nil
		},
	}
}
