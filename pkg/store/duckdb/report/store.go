package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/store/duckdb"
	"github.com/google/uuid"
)

// Store persists analysis reports. Besides the full report payload, recommendations and
// remediation outcomes are flattened into their own tables for ad-hoc queries.
type Store interface {
	SaveReport(ctx context.Context, report *domain.AnalysisReport) error
	LatestReport(ctx context.Context) (*domain.AnalysisReport, error)
}

type reportStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &reportStore{
		db: db,
	}, nil
}

func (s *reportStore) SaveReport(ctx context.Context, report *domain.AnalysisReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	wire := adapters.MapReportDomainToApi(report)
	payload, err := json.Marshal(wire)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	id := uuid.NewString()

	return duckdb.InTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reports (
				id, created_at, total_recommendations, total_potential_savings,
				actions_taken, warnings, payload
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id,
			report.Timestamp.UTC(),
			wire.TotalRecommendations,
			wire.TotalPotentialSavings,
			len(wire.ActionsTaken),
			len(wire.Warnings),
			string(payload),
		)
		if err != nil {
			return fmt.Errorf("insert report: %w", err)
		}

		for i, rec := range wire.Recommendations {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO recommendations (
					report_id, seq, type, severity, region, resource_id, action, monthly_savings
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				id, i, rec.Type, rec.Severity, rec.Region, rec.ResourceID, rec.Action, rec.MonthlySavings,
			)
			if err != nil {
				return fmt.Errorf("insert recommendation %s: %w", rec.ResourceID, err)
			}
		}

		for i, action := range wire.ActionsTaken {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO remediation_outcomes (
					report_id, seq, executed_at, resource_id, action, succeeded, result, error
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				id, i, action.Timestamp.UTC(), action.Recommendation.ResourceID, action.Recommendation.Action,
				action.Succeeded, nullString(action.Result), nullString(action.Error),
			)
			if err != nil {
				return fmt.Errorf("insert remediation outcome %s: %w", action.Recommendation.ResourceID, err)
			}
		}
		return nil
	})
}

// LatestReport returns the most recent report or duckdb.ErrNotFound.
func (s *reportStore) LatestReport(ctx context.Context) (*domain.AnalysisReport, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM reports ORDER BY created_at DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, duckdb.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest report: %w", err)
	}

	var wire api.Report
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return adapters.MapReportApiToDomain(wire)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
