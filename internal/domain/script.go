package domain

const (
	// FullScriptSuffix はフルスクリプトのファイル名末尾。
	FullScriptSuffix = "full_database_script.sql"
	// ScriptSuffix は全スクリプト共通のファイル名末尾。
	ScriptSuffix = "_script.sql"
)

// ScriptKind はスクリプトの種別を表す。
type ScriptKind string

const (
	// ScriptKindFull はベースラインとなるフルスクリプト。
	ScriptKindFull ScriptKind = "full"
	// ScriptKindPartial は差分スクリプト。
	ScriptKindPartial ScriptKind = "partial"
)

// ScriptFile はスクリプトディレクトリで見つかったファイルを表す。
type ScriptFile struct {
	Identity Identity   `json:"-"`
	Kind     ScriptKind `json:"kind"`
	Name     string     `json:"name"` // ベースファイル名
	Path     string     `json:"path"`
}

// ScriptCatalog はあるIdentityに属するスクリプト一覧。
type ScriptCatalog struct {
	Full     *ScriptFile  // 存在しない場合はnil
	Partials []ScriptFile // ファイル名の昇順（バイト比較）
}

// Plan は未実行スクリプトの実行計画を表す。
type Plan struct {
	Identity Identity `json:"identity"`
	// Full は実行予定のフルスクリプト（実行済み・不在の場合はnil）。
	Full *ScriptFile `json:"full,omitempty"`
	// Partials は個別に実行される差分スクリプト。
	Partials []ScriptFile `json:"partials"`
	// Snapshot はフルスクリプト実行時に実行せず適用済みとして記録される差分スクリプト。
	Snapshot []ScriptFile `json:"snapshot"`
}

// Empty は実行すべきスクリプトがない場合にtrueを返す。
func (p *Plan) Empty() bool {
	return p.Full == nil && len(p.Partials) == 0
}
