package database

import (
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/lib/pq"
	"github.com/navikt/datavask-backend/pkg/database/gensql"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/qustavo/sqlhooks/v2"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	driverName = "postgres-hooked"

	// WorkspaceSchema holds the dataset tables, apart from the registry.
	WorkspaceSchema = "workspace"
)

var registerDriver sync.Once

type Querier interface {
	gensql.Querier
	WithTx(tx *sql.Tx) *gensql.Queries
}

type Repo struct {
	Querier Querier
	db      *sql.DB
	schema  string
}

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

// Schema is the schema dataset tables are created in.
func (r *Repo) Schema() string {
	return r.schema
}

func (r *Repo) Metrics() []prometheus.Collector {
	return queryHooks.collectors()
}

func New(dbConnDSN string, maxIdleConn, maxOpenConn int, schema string, log *logrus.Entry) (*Repo, error) {
	registerDriver.Do(func() {
		sql.Register(driverName, sqlhooks.Wrap(&pq.Driver{}, queryHooks))
	})

	if schema == "" {
		schema = WorkspaceSchema
	}

	db, err := sql.Open(driverName, dbConnDSN)
	if err != nil {
		return nil, fmt.Errorf("open sql connection: %w", err)
	}

	db.SetMaxIdleConns(maxIdleConn)
	db.SetMaxOpenConns(maxOpenConn)

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(log)

	err = goose.SetDialect("postgres")
	if err != nil {
		return nil, fmt.Errorf("setting dialect: %w", err)
	}

	err = goose.Up(db, "migrations")
	if err != nil {
		return nil, fmt.Errorf("goose up: %w", err)
	}

	_, err = db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schema)))
	if err != nil {
		return nil, fmt.Errorf("creating workspace schema %s: %w", schema, err)
	}

	return &Repo{
		Querier: gensql.New(db),
		db:      db,
		schema:  schema,
	}, nil
}
