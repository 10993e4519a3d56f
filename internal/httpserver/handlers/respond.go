package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/longkidkoolstar/jsonviewer/internal/domain"
	"github.com/longkidkoolstar/jsonviewer/internal/logger"
)

const maxBodyBytes = 16 << 20

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to an HTTP status.
func statusFor(kind string) int {
	switch kind {
	case domain.KindValidation, domain.KindParse:
		return http.StatusBadRequest
	case domain.KindNotFound, domain.KindUnknownConfirmation:
		return http.StatusNotFound
	case domain.KindBusy:
		return http.StatusTooManyRequests
	case domain.KindStaleConfirmation:
		return http.StatusConflict
	case domain.KindNetwork, domain.KindRemoteRejection:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", logger.String("kind", kind), logger.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Kind: kind})
}

// decodeJSON reads a JSON request body into dst. An empty body leaves dst as is.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, domain.Validationf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, domain.Validationf("read request body: %v", err)
	}
	return body, nil
}
