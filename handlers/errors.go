package handlers

import (
	"log/slog"
	"net/http"

	"reelbase/utils/respond"
)

// writeError sends err with its mapped status. Statuses the mappers never
// resolved are treated as unexpected: the error is logged and the client
// gets a generic bad-request answer so internal detail stays out of
// responses. Upstream failures keep their gateway status but are masked
// the same way.
func writeError(w http.ResponseWriter, op string, status int, err error) {
	switch status {
	case http.StatusInternalServerError:
		slog.Error("unexpected failure", "op", op, "error", err)
		respond.Error(w, http.StatusBadRequest, "request could not be processed")
	case http.StatusBadGateway:
		slog.Error("upstream request failed", "op", op, "error", err)
		respond.Error(w, http.StatusBadGateway, "metadata provider request failed")
	default:
		respond.Error(w, status, err.Error())
	}
}
