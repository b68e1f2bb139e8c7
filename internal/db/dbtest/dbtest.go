// Package dbtest gives tests in other packages a fresh, migrated database.
package dbtest

import (
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/losnotables/opsconsole/internal/db"
)

var counter uint64

// Open returns an in-memory SQLite database with the full schema applied.
// Each call gets its own named shared-cache database, closed when the test
// ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	id := atomic.AddUint64(&counter, 1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", id)
	d, err := db.Open(dsn)
	if err != nil {
		t.Fatalf("dbtest.Open: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}
