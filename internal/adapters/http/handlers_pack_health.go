package httpadapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/proofpack-health/internal/core/domain"
	"github.com/kirillkom/proofpack-health/internal/infrastructure/report/xlsx"
)

const maxJSONBodyBytes = 4 << 20

type previewRequest struct {
	Documents []domain.Document `json:"documents"`
	Gaps      []domain.GapItem  `json:"gaps"`
	AsOf      string            `json:"as_of"`
}

type gapStatusRequest struct {
	Status domain.GapStatus `json:"status"`
}

func (rt *Router) evaluatePackHealth(w http.ResponseWriter, r *http.Request) {
	asOf, err := bindAsOf(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	report, err := rt.evaluator.Evaluate(r.Context(), r.PathValue("profileID"), asOf)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (rt *Router) latestPackHealth(w http.ResponseWriter, r *http.Request) {
	snapshot, err := rt.evaluator.Latest(r.Context(), r.PathValue("profileID"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (rt *Router) exportPackHealth(w http.ResponseWriter, r *http.Request) {
	asOf, err := bindAsOf(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	profileID := r.PathValue("profileID")
	report, err := rt.evaluator.Report(r.Context(), profileID, asOf)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := xlsx.Write(&buf, *report); err != nil {
		writeDomainError(w, r, fmt.Errorf("render pack health workbook: %w", err))
		return
	}

	w.Header().Set("Content-Type", xlsx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="pack-health-%s.xlsx"`, domain.SnakeCase(report.ProfileID)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (rt *Router) updateGapStatus(w http.ResponseWriter, r *http.Request) {
	var req gapStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := rt.gaps.UpdateStatus(r.Context(), r.PathValue("profileID"), r.PathValue("gapID"), req.Status); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) previewPackHealth(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	report, err := rt.evaluator.Preview(req.Documents, req.Gaps, asOf)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// bindAsOf reads the optional as_of query parameter. Absent means "now".
func bindAsOf(r *http.Request) (time.Time, error) {
	var asOf *time.Time
	if err := runtime.BindQueryParameter("form", true, false, "as_of", r.URL.Query(), &asOf); err != nil {
		return time.Time{}, domain.WrapError(domain.ErrInvalidInput, "bind as_of", err)
	}
	if asOf == nil {
		return time.Time{}, nil
	}
	return asOf.UTC(), nil
}

func parseAsOf(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	var asOf time.Time
	if err := runtime.BindStringToObject(raw, &asOf); err != nil {
		return time.Time{}, domain.WrapError(domain.ErrInvalidInput, "parse as_of", err)
	}
	return asOf.UTC(), nil
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}
