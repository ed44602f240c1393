//go:build integration
// +build integration

package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/liamcoop/fakerules/fake"
	"github.com/liamcoop/fakerules/journal"

	_ "github.com/lib/pq"
)

type Clock interface {
	Now() (string, error)
}

// setupTestDB creates a PostgreSQL container with the journal schema
func setupTestDB(t *testing.T) (*sql.DB, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "journal_test",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	connStr := fmt.Sprintf("host=%s port=%s user=test password=test dbname=journal_test sslmode=disable", host, port.Port())

	var db *sql.DB
	for i := 0; i < 30; i++ {
		db, err = sql.Open("postgres", connStr)
		if err == nil {
			if err = db.Ping(); err == nil {
				break
			}
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	if err := journal.Migrate(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	// a second run is a no-op
	if err := journal.Migrate(db); err != nil {
		t.Fatalf("Re-running migrations failed: %v", err)
	}

	cleanup := func() {
		db.Close()
		container.Terminate(ctx)
	}
	return db, cleanup
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := journal.NewPostgresStore(db)
	method := fake.MustMethodOf[Clock]("Now")

	m := fake.NewManager(fake.WithObserver(journal.Recorder(store, 5*time.Second)))
	if _, err := m.Configure(fake.CallTo(method).Returns("noon").Once()); err != nil {
		t.Fatalf("Configure() failed: %v", err)
	}
	if _, err := m.ConfigureLast(fake.CallTo(method).Fails(errors.New("clock stopped"))); err != nil {
		t.Fatalf("ConfigureLast() failed: %v", err)
	}

	_ = m.Intercept(fake.NewCall(nil, method))
	_ = m.Intercept(fake.NewCall(nil, method))

	entries, err := store.List(ctx, m.ID())
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if string(entries[0].ReturnValue) != `"noon"` {
		t.Errorf("Expected return value \"noon\", got %s", entries[0].ReturnValue)
	}
	if entries[1].Fault != "clock stopped" {
		t.Errorf("Expected fault 'clock stopped', got %q", entries[1].Fault)
	}
	if entries[1].ReturnValue != nil {
		t.Errorf("Expected no return value for the failed call, got %s", entries[1].ReturnValue)
	}

	got, err := store.Get(ctx, entries[0].ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Sequence != 1 || got.Method != method.String() {
		t.Errorf("Unexpected entry: %+v", got)
	}

	n, err := store.Delete(ctx, m.ID())
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 deleted entries, got %d", n)
	}
	if _, err := store.Get(ctx, entries[0].ID); !errors.Is(err, journal.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}
