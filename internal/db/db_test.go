package db

import (
	"strings"
	"testing"
)

func TestStatementsCoverEveryName(t *testing.T) {
	names := []string{
		StmtHealthCheck,
		StmtDueCandidates,
		StmtCandidateByID,
		StmtUserByID,
		StmtUpdatePrice,
		StmtAppendHistory,
		StmtUpdateAlertState,
		StmtRecordAlert,
		StmtCountActiveProducts,
		StmtCreateProduct,
		StmtDeactivateProduct,
		StmtRecentHistory,
	}

	stmts := Statements()
	if len(stmts) != len(names) {
		t.Fatalf("Statements() has %d entries, want %d", len(stmts), len(names))
	}
	for _, name := range names {
		sql, ok := stmts[name]
		if !ok || strings.TrimSpace(sql) == "" {
			t.Errorf("statement %q missing", name)
		}
	}
}

func TestDueCandidatesOrdering(t *testing.T) {
	sql := Statements()[StmtDueCandidates]
	if !strings.Contains(sql, "ORDER BY p.user_id, p.created_at, p.id") {
		t.Fatalf("due_candidates must order by owner then creation: %s", sql)
	}
}
