package httpadapter

import (
	"net/http"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/store"
)

type mutation func(ifMatch int64) (store.ReadModel, error)

// runMutation applies the If-Match precondition, records the outcome and
// renders the resulting read model.
func (rt *Router) runMutation(w http.ResponseWriter, r *http.Request, operation string, apply mutation) {
	ifMatch, err := parseIfMatch(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rm, err := apply(ifMatch)
	rt.recorder.RecordMutation(serviceName, operation, err)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.recorder.RecordDuplicates(serviceName, len(rm.Duplicates))
	writeReadModel(w, http.StatusOK, r.PathValue("session_id"), rm)
}

func (rt *Router) updateFields(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decodeJSON(w, r, &raw); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := domain.FieldPatchFromMap(raw)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rt.runMutation(w, r, "update_fields", func(ifMatch int64) (store.ReadModel, error) {
		return rt.reviewer.UpdateFields(r.Context(), r.PathValue("session_id"), ifMatch, r.PathValue("group_id"), patch)
	})
}

func (rt *Router) updateAsset(w http.ResponseWriter, r *http.Request) {
	var patch domain.AssetPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	rt.runMutation(w, r, "update_asset", func(ifMatch int64) (store.ReadModel, error) {
		return rt.reviewer.UpdateAsset(
			r.Context(),
			r.PathValue("session_id"),
			ifMatch,
			r.PathValue("group_id"),
			r.PathValue("asset_id"),
			patch,
		)
	})
}

func (rt *Router) regroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetID          string `json:"asset_id"`
		TargetGroupID    string `json:"target_group_id"`
		DestinationIndex *int   `json:"destination_index"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt.runMutation(w, r, "regroup", func(ifMatch int64) (store.ReadModel, error) {
		return rt.reviewer.Regroup(r.Context(), r.PathValue("session_id"), ifMatch, req.AssetID, req.TargetGroupID, req.DestinationIndex)
	})
}

func (rt *Router) createGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetID string `json:"asset_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt.runMutation(w, r, "create_group", func(ifMatch int64) (store.ReadModel, error) {
		return rt.reviewer.CreateGroup(r.Context(), r.PathValue("session_id"), ifMatch, req.AssetID)
	})
}

func (rt *Router) reorder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetID  string `json:"asset_id"`
		NewIndex int    `json:"new_index"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt.runMutation(w, r, "reorder", func(ifMatch int64) (store.ReadModel, error) {
		return rt.reviewer.Reorder(r.Context(), r.PathValue("session_id"), ifMatch, r.PathValue("group_id"), req.AssetID, req.NewIndex)
	})
}

func (rt *Router) renumber(w http.ResponseWriter, r *http.Request) {
	var req struct {
		StartNumber int `json:"start_number"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt.runMutation(w, r, "renumber", func(ifMatch int64) (store.ReadModel, error) {
		return rt.reviewer.Renumber(r.Context(), r.PathValue("session_id"), ifMatch, req.StartNumber)
	})
}

func (rt *Router) bulkReplace(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field   string `json:"field"`
		Find    string `json:"find"`
		Replace string `json:"replace"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt.runMutation(w, r, "bulk_replace", func(ifMatch int64) (store.ReadModel, error) {
		return rt.reviewer.BulkReplace(r.Context(), r.PathValue("session_id"), ifMatch, req.Field, req.Find, req.Replace)
	})
}

func (rt *Router) bulkApply(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GroupIDs []string `json:"group_ids"`
		Field    string   `json:"field"`
		Value    string   `json:"value"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rt.runMutation(w, r, "bulk_apply", func(ifMatch int64) (store.ReadModel, error) {
		return rt.reviewer.BulkApply(r.Context(), r.PathValue("session_id"), ifMatch, req.GroupIDs, req.Field, req.Value)
	})
}
