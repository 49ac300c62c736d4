package httpadapter

import (
	"mime"
	"net/http"
	"strconv"
)

const defaultExportFormat = "csv"

func exportFormat(r *http.Request) string {
	if format := r.URL.Query().Get("format"); format != "" {
		return format
	}
	return defaultExportFormat
}

func (rt *Router) exportRows(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("session_id")
	rows, err := rt.exporter.Rows(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": id,
		"rows":       rows,
	})
}

func (rt *Router) exportSession(w http.ResponseWriter, r *http.Request) {
	format := exportFormat(r)
	artifact, err := rt.exporter.Export(r.Context(), r.PathValue("session_id"), format)
	rt.recorder.RecordExport(serviceName, format, len(artifact.Body), err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Body)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": artifact.Filename,
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Body)
}

func (rt *Router) publishExport(w http.ResponseWriter, r *http.Request) {
	format := exportFormat(r)
	key, err := rt.exporter.Publish(r.Context(), r.PathValue("session_id"), format)
	rt.recorder.RecordExport(serviceName, format, 0, err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"key":    key,
		"format": format,
	})
}
