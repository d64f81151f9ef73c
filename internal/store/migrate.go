package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
)

//go:embed migrations/*.sql
var migrations embed.FS

func migrationFiles(suffix string) ([]string, error) {
	files, err := fs.Glob(migrations, "migrations/*."+suffix+".sql")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// MigrateUp applies every embedded *.up.sql file in name order. The scripts
// are idempotent, so running them on every start is safe.
func (p *Postgres) MigrateUp(ctx context.Context) error {
	files, err := migrationFiles("up")
	if err != nil {
		return err
	}
	return p.apply(ctx, files)
}

// MigrateDown applies the *.down.sql files in reverse order.
func (p *Postgres) MigrateDown(ctx context.Context) error {
	files, err := migrationFiles("down")
	if err != nil {
		return err
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return p.apply(ctx, files)
}

func (p *Postgres) apply(ctx context.Context, files []string) error {
	for _, file := range files {
		sql, err := migrations.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := p.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		p.log.Info().Str("file", file).Msg("migration applied")
	}
	return nil
}
