package domain

// Driver はSQLバックエンドの種類を表す。
type Driver string

const (
	DriverSQLServer Driver = "sqlserver"
	DriverPostgres  Driver = "postgres"
	DriverMySQL     Driver = "mysql"
	DriverSQLite    Driver = "sqlite"
)

// Target は接続文字列を解析したマイグレーション対象。
type Target struct {
	Driver   Driver
	DSN      string // ドライバにそのまま渡す接続文字列
	Server   string // 正規化前のサーバー名
	Database string
}

// Identity は対象のIdentityを返す。
func (t Target) Identity() Identity {
	return NewIdentity(t.Server, t.Database)
}
