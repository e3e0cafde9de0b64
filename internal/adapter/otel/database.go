package otel

import (
	"database/sql"
	"fmt"

	"github.com/XSAM/otelsql"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/neomorfeo/frontdesk/internal/adapter/sqlite"
)

// OpenDB opens the front-desk SQLite database with OpenTelemetry
// instrumentation: every statement is traced and pool stats are exported
// as metrics. The connection is configured the same way sqlite.New does.
func OpenDB(dataSourceName string) (*sql.DB, error) {
	db, err := otelsql.Open("sqlite", dataSourceName,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
		otelsql.WithSpanOptions(otelsql.SpanOptions{OmitConnResetSession: true}),
	)
	if err != nil {
		return nil, fmt.Errorf("opening instrumented database: %w", err)
	}

	// Room claims, the lease table and River all share one writer.
	db.SetMaxOpenConns(1)

	if err := sqlite.Configure(db); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := otelsql.RegisterDBStatsMetrics(db,
		otelsql.WithAttributes(semconv.DBSystemSqlite),
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("registering db stats metrics: %w", err)
	}

	return db, nil
}
