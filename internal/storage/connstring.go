package storage

import (
	"fmt"
	"strings"
	"time"
)

// DefaultBusyTimeout is used by SQLiteConnString when no timeout is given.
const DefaultBusyTimeout = 30 * time.Second

// SQLiteConnString builds a SQLite connection string with standard pragmas.
//
// Includes busy_timeout (prevents "database is locked" under concurrency)
// and the sqlite time format. If path is already a file: URI, pragmas are
// appended only if absent.
func SQLiteConnString(path string, busy time.Duration) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if busy <= 0 {
		busy = DefaultBusyTimeout
	}
	busyMs := int64(busy / time.Millisecond)

	if strings.HasPrefix(path, "file:") {
		conn := path
		sep := "?"
		if strings.Contains(conn, "?") {
			sep = "&"
		}
		if !strings.Contains(conn, "_pragma=busy_timeout") {
			conn += fmt.Sprintf("%s_pragma=busy_timeout(%d)", sep, busyMs)
			sep = "&"
		}
		if !strings.Contains(conn, "_time_format=") {
			conn += sep + "_time_format=sqlite"
		}
		return conn
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_time_format=sqlite", path, busyMs)
}
