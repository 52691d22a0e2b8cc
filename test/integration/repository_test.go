package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kitbuilder587/score-lookup/internal/domain"
	pgRepo "github.com/kitbuilder587/score-lookup/internal/repository/postgres"
)

var testDB *pgRepo.DB

func TestMain(m *testing.M) {
	if os.Getenv("SHORT_TESTS") == "1" {
		os.Exit(0)
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test_db"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		panic(err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		panic(err)
	}

	testDB, err = pgRepo.New(ctx, connStr)
	if err != nil {
		panic(err)
	}

	if err := testDB.Migrate(ctx); err != nil {
		panic(err)
	}
	// повторная миграция не должна падать
	if err := testDB.Migrate(ctx); err != nil {
		panic(err)
	}

	code := m.Run()

	testDB.Close()
	pgContainer.Terminate(ctx)

	os.Exit(code)
}

func TestLookupRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	repo := pgRepo.NewLookupRepo(testDB)

	base := time.Now().UTC().Truncate(time.Microsecond)
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = uuid.NewString()
		rec := &domain.LookupRecord{
			ID:          ids[i],
			Query:       fmt.Sprintf("beethoven op %d", 90+i),
			Mode:        domain.ModePublicDomain,
			ClientID:    "http:127.0.0.1",
			ResultCount: 5,
			TopTitle:    "Piano Sonata No.27, Op.90 (Beethoven, Ludwig van)",
			TopVerdict:  domain.VerdictYes,
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Save(ctx, rec); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("Recent() returned %d records, want 2", len(got))
	}
	if got[0].ID != ids[2] || got[1].ID != ids[1] {
		t.Errorf("Recent() order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, ids[2], ids[1])
	}
	if got[0].TopVerdict != domain.VerdictYes {
		t.Errorf("TopVerdict = %q, want YES", got[0].TopVerdict)
	}
	if got[0].Mode != domain.ModePublicDomain {
		t.Errorf("Mode = %q, want pd", got[0].Mode)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Second)) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, base.Add(2*time.Second))
	}
}

func TestLookupRepository_DuplicateID_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	repo := pgRepo.NewLookupRepo(testDB)

	rec := &domain.LookupRecord{
		ID:        uuid.NewString(),
		Query:     "satie",
		Mode:      domain.ModeSearch,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, rec); err == nil {
		t.Error("Save() with duplicate id should fail")
	}
}
