package infra

import (
	"context"
	"fmt"

	kms "cloud.google.com/go/kms/apiv1"
	kmspb "cloud.google.com/go/kms/apiv1/kmspb"
)

// KMSClient はCloud KMSクライアントをラップする。
// 暗号化された接続文字列の復号に使う。
type KMSClient struct {
	client  *kms.KeyManagementClient
	keyName string
}

// NewKMSClient は指定されたキー名でKMSClientを生成する。
func NewKMSClient(ctx context.Context, keyName string) (*KMSClient, error) {
	if keyName == "" {
		return nil, fmt.Errorf("KMS_KEY_NAME is required")
	}

	client, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating KMS client: %w", err)
	}

	return &KMSClient{
		client:  client,
		keyName: keyName,
	}, nil
}

// Encrypt は平文をCloud KMSで暗号化する。
func (c *KMSClient) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	resp, err := c.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:      c.keyName,
		Plaintext: plaintext,
	})
	if err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}
	return resp.Ciphertext, nil
}

// Decrypt は暗号文をCloud KMSで復号する。
func (c *KMSClient) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	resp, err := c.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:       c.keyName,
		Ciphertext: ciphertext,
	})
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return resp.Plaintext, nil
}

// Close はKMSクライアントを閉じる。
func (c *KMSClient) Close() error {
	return c.client.Close()
}

// LazyKMSClient は最初の復号時にKMSクライアントを生成する。
// 暗号化された接続文字列を使わない実行ではGCPの認証情報を必要としない。
type LazyKMSClient struct {
	keyName string
	client  *KMSClient
}

// NewLazyKMSClient は新しいLazyKMSClientを生成する。
func NewLazyKMSClient(keyName string) *LazyKMSClient {
	return &LazyKMSClient{keyName: keyName}
}

// Decrypt は暗号文を復号する。
func (c *LazyKMSClient) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	if c.client == nil {
		client, err := NewKMSClient(ctx, c.keyName)
		if err != nil {
			return nil, err
		}
		c.client = client
	}
	return c.client.Decrypt(ctx, ciphertext)
}

// Close は生成済みのクライアントを閉じる。
func (c *LazyKMSClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
