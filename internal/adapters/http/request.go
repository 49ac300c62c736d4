package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/kirillkom/ad-autonamer/internal/core/domain"
	"github.com/kirillkom/ad-autonamer/internal/core/store"
)

const maxBodyBytes = 16 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// sessionResponse is the read model plus the session it belongs to.
type sessionResponse struct {
	SessionID string `json:"session_id"`
	store.ReadModel
}

func writeReadModel(w http.ResponseWriter, status int, sessionID string, rm store.ReadModel) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(rm.Version, 10)))
	writeJSON(w, status, sessionResponse{SessionID: sessionID, ReadModel: rm})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.WrapError(domain.ErrInvalidInput, "decode body", errors.New("request body is required"))
		}
		return domain.WrapError(domain.ErrInvalidInput, "decode body", fmt.Errorf("invalid json: %w", err))
	}
	return nil
}

// parseIfMatch reads the snapshot version a client last saw. Absent or "*"
// means no precondition. Quoted and weak forms ("3", W/"3") are accepted.
func parseIfMatch(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" || raw == "*" {
		return 0, nil
	}
	raw = strings.TrimPrefix(raw, "W/")
	raw = strings.Trim(raw, `"`)
	version, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || version < 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "parse If-Match", fmt.Errorf("invalid version %q", r.Header.Get("If-Match")))
	}
	return version, nil
}
