package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"splitpot/backend/middleware"
	"splitpot/backend/models"
	"splitpot/backend/projection"
	"splitpot/backend/services"
)

var overviewLoader = services.NewOverviewLoader(services.LocalSource{})

func GetDebts(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(r, "date")
	if !ok {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	summary, err := services.LocalSource{}.GetDebts(r.Context(), mux.Vars(r)["projectId"], date, boolParam(r, "include_drafts"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetOverview returns debts and payments fetched together. With
// source=upstream both come from the project's remote ledger.
func GetOverview(w http.ResponseWriter, r *http.Request) {
	date, ok := dateParam(r, "date")
	if !ok {
		http.Error(w, "Invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	mode := r.URL.Query().Get("mode")
	switch mode {
	case "":
		mode = models.SettlementModeMinimal
	case models.SettlementModeMinimal, models.SettlementModeDirect:
	default:
		http.Error(w, "Invalid mode, expected minimal or direct", http.StatusBadRequest)
		return
	}

	projectID := mux.Vars(r)["projectId"]
	req := services.OverviewRequest{
		ProjectID:     projectID,
		Date:          date,
		IncludeDrafts: boolParam(r, "include_drafts"),
		Mode:          mode,
	}

	loader := overviewLoader
	if r.URL.Query().Get("source") == models.SourceUpstream {
		client, remoteID, err := services.UpstreamClient(projectID)
		if err != nil {
			writeError(w, err)
			return
		}
		loader = services.NewOverviewLoader(services.NewUpstreamSource(client))
		req.ProjectID = remoteID
	}

	key := middleware.GetUserIDFromContext(r) + "/" + projectID
	overview, err := loader.Load(r.Context(), key, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// projectionRequest reads the projection window; start defaults to today
func projectionRequest(w http.ResponseWriter, r *http.Request) (services.ProjectionRequest, bool) {
	start, ok := dateParam(r, "start")
	if !ok {
		http.Error(w, "Invalid start date, expected YYYY-MM-DD", http.StatusBadRequest)
		return services.ProjectionRequest{}, false
	}
	return services.ProjectionRequest{
		Start:         start,
		End:           r.URL.Query().Get("end"),
		FocusID:       r.URL.Query().Get("focus"),
		IncludeDrafts: boolParam(r, "include_drafts"),
		Today:         Now(),
	}, true
}

type projectionResponse struct {
	Participants []models.Participant  `json:"participants"`
	Snapshots    []projection.Snapshot `json:"snapshots"`
}

func GetProjection(w http.ResponseWriter, r *http.Request) {
	req, ok := projectionRequest(w, r)
	if !ok {
		return
	}

	participants, snapshots, err := services.BuildProjection(r.Context(), mux.Vars(r)["projectId"], req, ProjectionWorkers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projectionResponse{Participants: participants, Snapshots: snapshots})
}

// ExportProjection renders the projection as an XLSX workbook formatted with
// the caller's preferences
func ExportProjection(w http.ResponseWriter, r *http.Request) {
	req, ok := projectionRequest(w, r)
	if !ok {
		return
	}
	projectID := mux.Vars(r)["projectId"]

	participants, snapshots, err := services.BuildProjection(r.Context(), projectID, req, ProjectionWorkers)
	if err != nil {
		writeError(w, err)
		return
	}
	summary, err := services.LocalSource{}.GetDebts(r.Context(), projectID, req.End, req.IncludeDrafts)
	if err != nil {
		writeError(w, err)
		return
	}
	prefs, err := services.GetPreferences(middleware.GetUserIDFromContext(r))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	err = services.WriteProjectionWorkbook(&buf, services.ExportInput{
		Participants: participants,
		Snapshots:    snapshots,
		Summary:      summary,
		FocusID:      req.FocusID,
		Prefs:        *prefs,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("projection-%s-%s.xlsx", req.Start, req.End)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func GetWarnings(w http.ResponseWriter, r *http.Request) {
	warnings, err := services.ProjectWarnings(mux.Vars(r)["projectId"], Now())
	if err != nil {
		writeError(w, err)
		return
	}
	if warnings == nil {
		warnings = []models.Warning{}
	}
	writeJSON(w, http.StatusOK, warnings)
}
