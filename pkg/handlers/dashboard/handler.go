package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/de-tools/cost-atlas/pkg/adapters"
	"github.com/de-tools/cost-atlas/pkg/models/api"
	"github.com/de-tools/cost-atlas/pkg/models/domain"
	"github.com/de-tools/cost-atlas/pkg/services/scheduler"
	"github.com/de-tools/cost-atlas/pkg/store/duckdb"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

type SnapshotReader interface {
	LatestSnapshot(ctx context.Context) (*domain.ResourceSnapshot, error)
}

type ReportReader interface {
	LatestReport(ctx context.Context) (*domain.AnalysisReport, error)
}

// Trigger is satisfied by *scheduler.Scheduler.
type Trigger interface {
	RunOnce(ctx context.Context) (*domain.AnalysisReport, error)
}

// Executor is satisfied by *remediation.Executor.
type Executor interface {
	Execute(ctx context.Context, rec domain.Recommendation) domain.RemediationOutcome
}

type Handler struct {
	snapshots SnapshotReader
	reports   ReportReader
	trigger   Trigger
	executor  Executor
}

func NewHandler(snapshots SnapshotReader, reports ReportReader, trigger Trigger, executor Executor) *Handler {
	return &Handler{
		snapshots: snapshots,
		reports:   reports,
		trigger:   trigger,
		executor:  executor,
	}
}

func (h *Handler) LatestScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	snapshot, err := h.snapshots.LatestSnapshot(ctx)
	if errors.Is(err, duckdb.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "No scan data available")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to load latest scan")
		writeError(w, r, http.StatusInternalServerError, "failed to load latest scan")
		return
	}

	writeJSON(w, r, http.StatusOK, adapters.MapSnapshotDomainToApi(snapshot))
}

func (h *Handler) LatestRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	report, err := h.reports.LatestReport(ctx)
	if errors.Is(err, duckdb.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "No recommendations available")
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("failed to load latest report")
		writeError(w, r, http.StatusInternalServerError, "failed to load latest report")
		return
	}

	writeJSON(w, r, http.StatusOK, adapters.MapReportDomainToApi(report))
}

func (h *Handler) TriggerScan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	report, err := h.trigger.RunOnce(ctx)
	if errors.Is(err, scheduler.ErrRunInProgress) {
		writeFailure(w, r, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		logger.Error().Err(err).Msg("triggered analysis failed")
		writeFailure(w, r, http.StatusBadGateway, "analysis failed: "+err.Error())
		return
	}

	full := adapters.MapReportDomainToApi(report)
	writeJSON(w, r, http.StatusOK, api.TriggerScanResponse{
		Success:              true,
		Message:              "Scan completed",
		Summary:              full.ScanSummary,
		RecommendationsCount: full.TotalRecommendations,
		PotentialSavings:     full.TotalPotentialSavings,
		Report:               &full,
	})
}

// ExecuteAction remediates the recommendation posted in the request body. The executor's
// dry-run setting applies.
func (h *Handler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body api.Recommendation
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		writeFailure(w, r, http.StatusBadRequest, "invalid recommendation payload")
		return
	}
	if body.ResourceID == "" {
		writeFailure(w, r, http.StatusBadRequest, "resource_id is required")
		return
	}
	rec, err := adapters.MapRecommendationApiToDomain(body)
	if err != nil {
		writeFailure(w, r, http.StatusBadRequest, err.Error())
		return
	}

	outcome := h.executor.Execute(ctx, rec)
	resp := api.ExecuteActionResponse{
		Success: outcome.Succeeded,
		Outcome: adapters.MapOutcomeDomainToApi(outcome),
	}
	if !outcome.Succeeded {
		resp.Error = outcome.Error
		writeJSON(w, r, http.StatusBadGateway, resp)
		return
	}
	resp.Message = outcome.Result
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, api.ErrorResponse{Error: msg})
}

func writeFailure(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, api.FailureResponse{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("failed to encode response")
	}
}
