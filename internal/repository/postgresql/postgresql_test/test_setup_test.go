package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	setupOnce sync.Once
	testDB    *database.DB
	setupErr  error
	terminate func()
)

func TestMain(m *testing.M) {
	code := m.Run()
	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

// newTestDatabase connects to TEST_DATABASE_URL, or starts a throwaway postgres container.
// The test is skipped when neither is available.
func newTestDatabase(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		testcontainers.SkipIfProviderIsNotHealthy(t)
	}

	setupOnce.Do(func() {
		ctx := context.Background()
		if dsn == "" {
			container, err := postgres.Run(ctx,
				"postgres:17-alpine",
				postgres.WithDatabase("hris_attendance_test"),
				postgres.WithUsername("test"),
				postgres.WithPassword("test"),
				testcontainers.WithWaitStrategy(
					wait.ForLog("database system is ready to accept connections").
						WithOccurrence(2).
						WithStartupTimeout(60*time.Second),
				),
			)
			if err != nil {
				setupErr = fmt.Errorf("failed to start postgres container: %w", err)
				return
			}
			terminate = func() { _ = container.Terminate(context.Background()) }

			dsn, err = container.ConnectionString(ctx, "sslmode=disable")
			if err != nil {
				setupErr = err
				return
			}
		}

		testDB, setupErr = database.NewPostgreSQLDB(dsn)
		if setupErr != nil {
			return
		}
		setupErr = postgresql.Migrate(ctx, testDB)
	})

	if setupErr != nil {
		t.Skipf("postgres unavailable: %v", setupErr)
	}

	truncateAllTables(t, testDB)
	return testDB
}

func truncateAllTables(t *testing.T, db *database.DB) {
	t.Helper()
	_, err := db.Exec(context.Background(), "TRUNCATE TABLE notifications, attendances, leave_requests, employees CASCADE")
	require.NoError(t, err)
}

func insertEmployee(t *testing.T, db *database.DB, code, name, department, role string) string {
	t.Helper()
	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO employees (employee_code, full_name, email, department, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		code, name, code+"@example.com", department, role,
	).Scan(&id)
	require.NoError(t, err)
	return id
}
