// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import "strings"

// serverReplacer はサーバー名のパス区切り文字を正規化する。
var serverReplacer = strings.NewReplacer(`\`, "_", "/", "_", ":", "_")

// Identity はマイグレーション対象を一意に表すキー（{server}_{database}）。
// トラッキングファイルのキーとスクリプトファイル名の接頭辞を兼ねる。
//
// 正規化により "a:b" と "a_b" のように異なるサーバーが同じキーになり得るが、
// 区別はしない。
type Identity string

// NewIdentity はサーバー名とデータベース名からIdentityを生成する。
func NewIdentity(server, database string) Identity {
	return Identity(NormalizeServer(server) + "_" + database)
}

// NormalizeServer はサーバー名の \ / : を _ に置換する。
func NormalizeServer(server string) string {
	return serverReplacer.Replace(server)
}

// String はキー文字列を返す。
func (id Identity) String() string {
	return string(id)
}

// ScriptPrefix はスクリプトファイル名の接頭辞を返す。
func (id Identity) ScriptPrefix() string {
	return string(id) + "_"
}

// FullScriptName はフルスクリプトのファイル名を返す。
func (id Identity) FullScriptName() string {
	return id.ScriptPrefix() + FullScriptSuffix
}

// LogFileName は実行ログのファイル名を返す。
func (id Identity) LogFileName() string {
	return string(id) + ".log"
}
