package domain

// RunOutcome はIdentityごとの実行結果を表す。
type RunOutcome string

const (
	RunOutcomeApplied  RunOutcome = "applied"
	RunOutcomeUpToDate RunOutcome = "up_to_date"
	RunOutcomeFailed   RunOutcome = "failed"
)

// RunResult はIdentityごとの実行結果。
type RunResult struct {
	Identity Identity
	Outcome  RunOutcome
	Executed []string // 実行ログに追記した行
	Err      error
}

// RunReport は1回の実行全体の結果。
type RunReport struct {
	RunID   string
	Results []RunResult
}

// Failed は失敗したIdentityが1つでもあればtrueを返す。
func (r *RunReport) Failed() bool {
	for _, res := range r.Results {
		if res.Outcome == RunOutcomeFailed {
			return true
		}
	}
	return false
}

// TargetStatus はIdentityごとの適用状況を表す。
type TargetStatus struct {
	Identity Identity `json:"identity"`
	FullRun  bool     `json:"fullRun"`
	Scripts  []string `json:"scripts"` // 適用済みの差分スクリプト
	Plan     *Plan    `json:"plan"`    // 次回実行時の計画
}
