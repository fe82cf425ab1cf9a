// Package catalog stores named Hitori boards in Postgres via bun, an
// alternative to -p/-n board generation: cmd/hitori loads -board <name> from
// here when -catalog <dsn> is set.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/smilemakc/hitori/internal/grid"
)

// BoardModel is a named puzzle input persisted in the hitori_boards table.
type BoardModel struct {
	bun.BaseModel `bun:"table:hitori_boards,alias:b"`

	Name      string    `bun:"name,pk" json:"name"`
	N         int       `bun:"n,notnull" json:"n"`
	Values    []int64   `bun:"values,array,notnull" json:"values"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}

// Catalog is the named-board store.
type Catalog struct {
	db *bun.DB
}

// Open connects to Postgres at dsn using pgdriver/pgdialect.
func Open(dsn string) (*Catalog, error) {
	connector := pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(10*time.Second),
	)
	sqldb := sql.OpenDB(connector)
	return &Catalog{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// OpenWithDB wraps an already-opened *sql.DB (e.g. a DATA-DOG/go-sqlmock
// mock), for testing without a live Postgres instance.
func OpenWithDB(sqldb *sql.DB) *Catalog {
	return &Catalog{db: bun.NewDB(sqldb, pgdialect.New())}
}

// EnsureSchema creates hitori_boards if it does not already exist.
func (c *Catalog) EnsureSchema(ctx context.Context) error {
	_, err := c.db.NewCreateTable().Model((*BoardModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Save upserts a named board.
func (c *Catalog) Save(ctx context.Context, name string, m grid.Matrix) error {
	values := make([]int64, len(m.Vals))
	for i, v := range m.Vals {
		values[i] = int64(v)
	}
	row := &BoardModel{Name: name, N: m.N, Values: values}
	_, err := c.db.NewInsert().
		Model(row).
		On("CONFLICT (name) DO UPDATE").
		Set("n = EXCLUDED.n").
		Set("values = EXCLUDED.values").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("catalog: save %q: %w", name, err)
	}
	return nil
}

// Load fetches a named board.
func (c *Catalog) Load(ctx context.Context, name string) (grid.Matrix, error) {
	row := new(BoardModel)
	if err := c.db.NewSelect().Model(row).Where("name = ?", name).Scan(ctx); err != nil {
		return grid.Matrix{}, fmt.Errorf("catalog: load %q: %w", name, err)
	}
	vals := make([]int, len(row.Values))
	for i, v := range row.Values {
		vals[i] = int(v)
	}
	return grid.Matrix{N: row.N, Vals: vals}, nil
}

// Close releases the underlying connection pool.
func (c *Catalog) Close() error { return c.db.Close() }
