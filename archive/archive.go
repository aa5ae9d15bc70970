// Package archive mirrors logged observations to PostgreSQL.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	logger "github.com/sirupsen/logrus"
)

const createTable = `CREATE TABLE IF NOT EXISTS %s (
	station TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	hth BIGINT NOT NULL,
	obs JSONB NOT NULL,
	PRIMARY KEY (station, ts)
)`

type Postgres struct {
	db      *sql.DB
	table   string
	station string
}

// Open connects to the database at dsn and makes sure the table exists.
func Open(ctx context.Context, dsn, table, station string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	p := New(db, table, station)
	if err := p.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return p, nil
}

func New(db *sql.DB, table, station string) *Postgres {
	return &Postgres{db: db, table: table, station: station}
}

func (p *Postgres) Init(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, fmt.Sprintf(createTable, p.table)); err != nil {
		return fmt.Errorf("create archive table: %w", err)
	}
	logger.Infof("Archive ready [%v]", p.table)
	return nil
}

// Record stores one observation in its log form. A second copy of the same
// observation is ignored.
func (p *Postgres) Record(ctx context.Context, ts time.Time, hth uint32, line string) error {
	q := fmt.Sprintf("INSERT INTO %s (station, ts, hth, obs) VALUES ($1,$2,$3,$4) ON CONFLICT (station, ts) DO NOTHING", p.table)
	if _, err := p.db.ExecContext(ctx, q, p.station, ts.UTC(), int64(hth), line); err != nil {
		return fmt.Errorf("archive observation: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
