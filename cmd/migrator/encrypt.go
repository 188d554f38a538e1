package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/spf13/cobra"

	"script-migrator/internal/infra"
	"script-migrator/internal/usecase"
)

// encryptCmd は接続文字列をCloud KMSで暗号化し、kms: 形式で出力する。
func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <connection>",
		Short: "Encrypt a connection string with Cloud KMS (KMS_KEY_NAME)",
		Args:  cobra.ExactArgs(1),
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

			// 暗号化前に形式を検証する
			if _, err := usecase.ParseConnectionString(args[0]); err != nil {
				return err
			}

			kmsClient, err := infra.NewKMSClient(ctx, cfg.KMSKeyName)
			if err != nil {
				return err
			}
			defer kmsClient.Close()

			ciphertext, err := kmsClient.Encrypt(ctx, []byte(args[0]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "kms:%s\n", base64.StdEncoding.EncodeToString(ciphertext))
			return nil
		},
	}
}
