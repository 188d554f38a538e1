package domain

import "testing"

func TestNewIdentity(t *testing.T) {
	tests := []struct {
		name     string
		server   string
		database string
		want     Identity
	}{
		{"plain host", "localhost", "App", "localhost_App"},
		{"named instance", `SQL01\PROD`, "Sales", "SQL01_PROD_Sales"},
		{"host with port", "db.example.com:1444", "Sales", "db.example.com_1444_Sales"},
		{"forward slash", "a/b", "c", "a_b_c"},
		{"all separators", `a\b/c:d`, "db", "a_b_c_d_db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewIdentity(tt.server, tt.database)
			if got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestIdentity_FileNames(t *testing.T) {
	id := NewIdentity(`SQL01\PROD`, "Sales")

	if got := id.FullScriptName(); got != "SQL01_PROD_Sales_full_database_script.sql" {
		t.Errorf("unexpected full script name: %s", got)
	}
	if got := id.ScriptPrefix(); got != "SQL01_PROD_Sales_" {
		t.Errorf("unexpected prefix: %s", got)
	}
	if got := id.LogFileName(); got != "SQL01_PROD_Sales.log" {
		t.Errorf("unexpected log file name: %s", got)
	}
}

func TestTarget_Identity(t *testing.T) {
	target := Target{Driver: DriverSQLServer, Server: `srv\inst`, Database: "db"}
	if got := target.Identity(); got != "srv_inst_db" {
		t.Errorf("want srv_inst_db, got %s", got)
	}
}
