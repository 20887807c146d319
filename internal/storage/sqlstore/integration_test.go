//go:build integration

package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/dolt"
)

// TestMySQLAdapterAgainstDolt runs the adapter contract over the MySQL
// protocol against a Dolt sql-server container. Requires Docker.
func TestMySQLAdapterAgainstDolt(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	container, err := dolt.Run(ctx, "dolthub/dolt-sql-server:1.32.4", dolt.WithDatabase("workitems"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	s, err := Open(ctx, Config{Dialect: DialectMySQL, DSN: dsn})
	require.NoError(t, err)
	defer s.Close()

	exerciseAdapter(t, s)
}
