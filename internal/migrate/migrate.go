// Package migrate applies the embedded PostgreSQL schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"

	gomigrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq" // registers the "postgres" driver
)

//go:embed sql/*.sql
var files embed.FS

const migrationsTable = "schema_migrations"

// ErrInvalidMigration indicates an embedded migration is missing a script.
var ErrInvalidMigration = errors.New("invalid migration file")

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// VersionStatus reports whether one migration has been applied.
// Dirty marks the version a failed run stopped at.
type VersionStatus struct {
	Version int
	Name    string
	Applied bool
	Dirty   bool
}

func newSource() (source.Driver, error) {
	src, err := iofs.New(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	return src, nil
}

// Load returns all embedded migrations ordered by version.
func Load() ([]Migration, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var migrations []Migration
	version, err := src.First()
	for err == nil {
		mig := Migration{Version: int(version)}

		up, name, rerr := src.ReadUp(version)
		if rerr != nil {
			return nil, fmt.Errorf("%w: version %d has no up script", ErrInvalidMigration, version)
		}
		mig.Name = name
		if mig.Up, rerr = readAll(up); rerr != nil {
			return nil, rerr
		}

		down, _, rerr := src.ReadDown(version)
		switch {
		case rerr == nil:
			if mig.Down, rerr = readAll(down); rerr != nil {
				return nil, rerr
			}
		case !errors.Is(rerr, fs.ErrNotExist):
			return nil, fmt.Errorf("read down %d: %w", version, rerr)
		}

		migrations = append(migrations, mig)
		version, err = src.Next(version)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	return migrations, nil
}

func readAll(r io.ReadCloser) (string, error) {
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read migration: %w", err)
	}
	return string(body), nil
}

// Migrator runs the embedded migrations against one database.
type Migrator struct {
	m          *gomigrate.Migrate
	migrations []Migration
}

// Open connects to PostgreSQL and prepares a Migrator. Close releases
// the connection.
func Open(ctx context.Context, databaseURL string) (*Migrator, error) {
	migrations, err := Load()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init migration driver: %w", err)
	}

	src, err := newSource()
	if err != nil {
		driver.Close()
		return nil, err
	}

	m, err := gomigrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		driver.Close()
		return nil, fmt.Errorf("init migrator: %w", err)
	}

	return &Migrator{m: m, migrations: migrations}, nil
}

// Close releases the source and the database connection.
func (g *Migrator) Close() error {
	srcErr, dbErr := g.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Up applies every pending migration and returns the versions applied.
func (g *Migrator) Up(ctx context.Context) ([]int, error) {
	before, err := g.version()
	if err != nil {
		return nil, err
	}

	if err := g.run(ctx, g.m.Up); err != nil {
		if errors.Is(err, gomigrate.ErrNoChange) {
			return nil, nil
		}
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	after, err := g.version()
	if err != nil {
		return nil, err
	}

	var applied []int
	for _, mig := range g.migrations {
		if mig.Version > before && mig.Version <= after {
			applied = append(applied, mig.Version)
		}
	}
	return applied, nil
}

// Down reverts the most recent steps migrations. steps <= 0 reverts all.
func (g *Migrator) Down(ctx context.Context, steps int) ([]int, error) {
	before, err := g.version()
	if err != nil {
		return nil, err
	}

	var done []int
	for i := len(g.migrations) - 1; i >= 0; i-- {
		if g.migrations[i].Version <= before {
			done = append(done, g.migrations[i].Version)
		}
	}
	if steps <= 0 || steps > len(done) {
		steps = len(done)
	}
	if steps == 0 {
		return nil, nil
	}

	if err := g.run(ctx, func() error { return g.m.Steps(-steps) }); err != nil {
		return nil, fmt.Errorf("revert migrations: %w", err)
	}
	return done[:steps], nil
}

// Status lists every embedded migration with its applied state.
func (g *Migrator) Status(ctx context.Context) ([]VersionStatus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, dirty, err := g.m.Version()
	switch {
	case errors.Is(err, gomigrate.ErrNilVersion):
		current, dirty = 0, false
	case err != nil:
		return nil, fmt.Errorf("read schema version: %w", err)
	}

	statuses := make([]VersionStatus, 0, len(g.migrations))
	for _, mig := range g.migrations {
		statuses = append(statuses, VersionStatus{
			Version: mig.Version,
			Name:    mig.Name,
			Applied: uint(mig.Version) <= current && !(dirty && uint(mig.Version) == current),
			Dirty:   dirty && uint(mig.Version) == current,
		})
	}
	return statuses, nil
}

// version returns the current schema version, 0 when nothing is applied.
func (g *Migrator) version() (int, error) {
	v, dirty, err := g.m.Version()
	if errors.Is(err, gomigrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return 0, gomigrate.ErrDirty{Version: int(v)}
	}
	return int(v), nil
}

// run executes fn, asking the migrator to stop between migrations once
// ctx is done.
func (g *Migrator) run(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			select {
			case g.m.GracefulStop <- true:
			default:
			}
		case <-done:
		}
	}()

	return fn()
}
