// Package sqlbatch はSQLスクリプトをGO区切りのバッチに分割する。
package sqlbatch

import (
	"iter"
	"slices"
	"strings"
)

// Separator はバッチ区切りのトークン。大文字小文字は区別しない。
const Separator = "GO"

// isSeparator は行が区切り行（前後の空白を除いてGOのみ）か判定する。
func isSeparator(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), Separator)
}

// Batches はテキストを文書順のバッチ列として返す。
// 各バッチは前後の空白が除去され、空のバッチは含まれない。
// 同じ入力に対して何度でも同じ結果を返す。
func Batches(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		var current strings.Builder
		flush := func() bool {
			batch := strings.TrimSpace(current.String())
			current.Reset()
			if batch == "" {
				return true
			}
			return yield(batch)
		}

		for line := range strings.Lines(text) {
			if isSeparator(line) {
				if !flush() {
					return
				}
				continue
			}
			current.WriteString(line)
		}
		flush()
	}
}

// Split はテキストをバッチのスライスに分割する。
func Split(text string) []string {
	return slices.Collect(Batches(text))
}
