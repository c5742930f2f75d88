package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/marcboeker/go-duckdb"
)

var ErrNotFound = errors.New("not found")

const ScansTableSchema = `
	CREATE TABLE IF NOT EXISTS scans (
		id VARCHAR PRIMARY KEY,
		captured_at TIMESTAMP NOT NULL,
		total_instances INTEGER NOT NULL,
		idle_instances INTEGER NOT NULL,
		total_volumes INTEGER NOT NULL,
		unattached_volumes INTEGER NOT NULL,
		total_databases INTEGER NOT NULL,
		payload VARCHAR NOT NULL
	);
`

const ReportsTableSchema = `
	CREATE TABLE IF NOT EXISTS reports (
		id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP NOT NULL,
		total_recommendations INTEGER NOT NULL,
		total_potential_savings DOUBLE NOT NULL,
		actions_taken INTEGER NOT NULL,
		warnings INTEGER NOT NULL,
		payload VARCHAR NOT NULL
	);
`

const RecommendationsTableSchema = `
	CREATE TABLE IF NOT EXISTS recommendations (
		report_id VARCHAR NOT NULL,
		seq INTEGER NOT NULL,
		type VARCHAR NOT NULL,
		severity VARCHAR NOT NULL,
		region VARCHAR NOT NULL,
		resource_id VARCHAR NOT NULL,
		action VARCHAR NOT NULL,
		monthly_savings DOUBLE NOT NULL,
		PRIMARY KEY (report_id, seq)
	);
`

const OutcomesTableSchema = `
	CREATE TABLE IF NOT EXISTS remediation_outcomes (
		report_id VARCHAR NOT NULL,
		seq INTEGER NOT NULL,
		executed_at TIMESTAMP NOT NULL,
		resource_id VARCHAR NOT NULL,
		action VARCHAR NOT NULL,
		succeeded BOOLEAN NOT NULL,
		result VARCHAR,
		error VARCHAR,
		PRIMARY KEY (report_id, seq)
	);
`

var bootQueries = []string{
	ScansTableSchema,
	ReportsTableSchema,
	RecommendationsTableSchema,
	OutcomesTableSchema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
