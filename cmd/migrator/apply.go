package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"script-migrator/config"
	"script-migrator/internal/domain"
	"script-migrator/internal/infra"
	"script-migrator/internal/repository"
	"script-migrator/internal/usecase"
)

// applyCmd はスクリプトの適用コマンド。ルートコマンドと同じ動作をする。
func applyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <connection>... <outputDir> <scriptsDir>",
		Short: "Apply pending scripts to every database",
		Args:  cobra.MinimumNArgs(3),
		RunE:  runApply,
	}
}

// invocation はコマンドライン引数を分解したもの。
type invocation struct {
	connections []string
	outputDir   string
	scriptsDir  string
}

func parseInvocation(args []string) invocation {
	n := len(args)
	return invocation{
		connections: args[:n-2],
		outputDir:   args[n-2],
		scriptsDir:  args[n-1],
	}
}

func newResolver(cfg *config.Config) (*usecase.ConnectionResolver, func()) {
	if cfg.KMSKeyName == "" {
		return usecase.NewConnectionResolver(nil), func() {}
	}
	kmsClient := infra.NewLazyKMSClient(cfg.KMSKeyName)
	return usecase.NewConnectionResolver(kmsClient), func() { _ = kmsClient.Close() }
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	inv := parseInvocation(args)

	resolver, closeResolver := newResolver(cfg)
	defer closeResolver()
	targets, err := resolver.ResolveAll(ctx, inv.connections)
	if err != nil {
		return err
	}

	// 出力先とスクリプトディレクトリを作成
	for _, dir := range []string{inv.outputDir, inv.scriptsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	trackingRepo := repository.NewTrackingRepository(inv.scriptsDir)
	if err := trackingRepo.EnsureExists(ctx); err != nil {
		return err
	}
	if err := trackingRepo.EnsureIgnored(ctx); err != nil {
		return err
	}

	migrationService := usecase.NewMigrationService(repository.NewScriptRepository(inv.scriptsDir))
	runService := usecase.NewRunService(
		migrationService,
		trackingRepo,
		repository.NewExecutionLogRepository(inv.outputDir),
		infra.NewGormBackend(cfg),
	)

	report, runErr := runService.Run(ctx, targets)
	if err := printReport(cmd.OutOrStdout(), report); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("migration failed: %w", runErr)
	}
	return nil
}

type resultJSON struct {
	Identity string   `json:"identity"`
	Outcome  string   `json:"outcome"`
	Executed []string `json:"executed"`
	Error    string   `json:"error,omitempty"`
}

func printReport(w io.Writer, report *domain.RunReport) error {
	if output == "json" {
		results := make([]resultJSON, len(report.Results))
		for i, r := range report.Results {
			results[i] = resultJSON{
				Identity: r.Identity.String(),
				Outcome:  string(r.Outcome),
				Executed: r.Executed,
			}
			if r.Err != nil {
				results[i].Error = r.Err.Error()
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run_id":  report.RunID,
			"results": results,
		})
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "IDENTITY\tOUTCOME\tEXECUTED")
	fmt.Fprintln(tw, "--------\t-------\t--------")
	for _, r := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", r.Identity, r.Outcome, len(r.Executed))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}
