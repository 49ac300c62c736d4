package httpadapter

import (
	"net/http"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
)

func (rt *Router) analyzeSession(w http.ResponseWriter, r *http.Request) {
	var req domain.AnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	session, err := rt.analyzer.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rm, err := rt.reader.Read(r.Context(), session.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recorder.RecordDuplicates(serviceName, len(rm.Duplicates))
	w.Header().Set("Location", "/v1/sessions/"+session.ID)
	writeReadModel(w, http.StatusCreated, session.ID, rm)
}

func (rt *Router) readSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	rm, err := rt.reader.Read(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recorder.RecordDuplicates(serviceName, len(rm.Duplicates))
	writeReadModel(w, http.StatusOK, id, rm)
}

func (rt *Router) triageSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	rm, err := rt.reader.Read(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"version":    rm.Version,
		"triage":     rm.Triage,
	})
}
