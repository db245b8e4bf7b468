package star

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"astro-server/internal/shared/database"
	"astro-server/internal/shared/database/dbtest"

	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	db   *database.DB
	repo *Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := dbtest.New(t)
	return fixture{db: db, repo: NewRepository(db, discardLogger())}
}

// seed inserts stars with explicit ids, in the order given.
func (f fixture) seed(t *testing.T, stars ...Star) {
	t.Helper()
	for _, s := range stars {
		_, err := f.db.ExecContext(context.Background(),
			`INSERT INTO stars (id, name, magnitude, distance, spectral_type) VALUES ($1, $2, $3, $4, $5)`,
			s.ID, s.Name, s.Magnitude, s.Distance, s.SpectralType)
		require.NoError(t, err)
	}
}

func (f fixture) ids(t *testing.T) []int {
	t.Helper()
	rows, err := f.db.QueryContext(context.Background(), `SELECT id FROM stars ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	require.NoError(t, rows.Err())
	return ids
}

func named(id int, name string) Star {
	return Star{ID: id, Name: name, Magnitude: 1.5, Distance: 10, SpectralType: "A0V"}
}
