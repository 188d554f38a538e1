// Package main はマイグレーションCLIのエントリポイント。
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"script-migrator/config"
	"script-migrator/internal/infra"
)

const version = "1.0.0"

var output string

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "migrator <connection>... <outputDir> <scriptsDir>",
		Short: "Apply versioned SQL scripts to one or more databases exactly once",
		Long: `Apply the full baseline script and the partial scripts found in <scriptsDir>
to every database given as a connection string, recording what ran in
<scriptsDir>/tracking.json and appending execution logs to <outputDir>.

Script files are named {server}_{database}_full_database_script.sql and
{server}_{database}_<name>_script.sql, where \, / and : in the server name
are replaced with _. Partial scripts run in ascending filename order.`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runApply,
	}

	rootCmd.PersistentFlags().StringVar(&output, "output", "text", "Output format: text, json")

	rootCmd.AddCommand(applyCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(encryptCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

// versionCmd はバージョン情報を表示する。
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "migrator version %s\n", version)
		},
	}
}

// setup は設定・ロガー・トレーサーを初期化する。返された関数で後始末を行う。
func setup(ctx context.Context) (*config.Config, func(), error) {
	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	cfg := config.Load()

	// トレーサー初期化（ロガー設定の前に実行）
	tp, err := infra.InitTracer(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init tracer: %w", err)
	}

	// 標準出力は結果表示に使うため、ログは標準エラーに出力する
	infra.SetupLogger(os.Stderr, cfg)

	cleanup := func() {
		if tp == nil {
			return
		}
		if err := tp.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown tracer", "error", err)
		}
	}
	return cfg, cleanup, nil
}
