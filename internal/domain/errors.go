package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrDiscovery はスクリプトディレクトリを読み込めない場合のエラー。実行全体を中断する。
	ErrDiscovery = errors.New("script discovery failed")

	// ErrTrackingCorrupt はトラッキングファイルを解析できない場合のエラー。
	// 空のストアで置き換えて処理を継続するため、致命的ではない。
	ErrTrackingCorrupt = errors.New("tracking file is corrupt")

	// ErrConnection はデータベースに接続できない場合のエラー。該当Identityのみ中断する。
	ErrConnection = errors.New("database connection failed")

	// ErrExecution はバッチの実行に失敗した場合のエラー。該当Identityのみ中断する。
	ErrExecution = errors.New("script execution failed")

	// ErrInvalidConnectionString は接続文字列の形式が不正な場合のエラー。
	ErrInvalidConnectionString = errors.New("invalid connection string")

	// ErrIdentityNotFound は指定されたIdentityが存在しない場合のエラー。
	ErrIdentityNotFound = errors.New("identity not found")
)

// ExecutionError はバッチ実行の失敗を、手動での復旧に必要な情報と共に表す。
type ExecutionError struct {
	Identity Identity
	Script   string
	Batch    int // 1始まりのバッチ番号（読み込み失敗時は0）
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Batch == 0 {
		return fmt.Sprintf("%s: %s: script %s: %v", ErrExecution, e.Identity, e.Script, e.Err)
	}
	return fmt.Sprintf("%s: %s: script %s batch %d: %v", ErrExecution, e.Identity, e.Script, e.Batch, e.Err)
}

// Unwrap はErrExecutionとバックエンドのエラーの両方を返す。
func (e *ExecutionError) Unwrap() []error {
	return []error{ErrExecution, e.Err}
}
