// Package api exposes task artifacts over HTTP: the artifact summary as
// JSON, export documents and share code images.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/dpup/xctsk-viewer/server/internal/clients/xcontest"
	"github.com/dpup/xctsk-viewer/server/internal/config"
	"github.com/dpup/xctsk-viewer/server/internal/lib/task"
	"github.com/dpup/xctsk-viewer/server/internal/lib/xctsk"
	"github.com/dpup/xctsk-viewer/server/internal/services"
)

// Largest task document accepted by upload
const maxUploadSize = 1 << 20

// Non-standard status recorded when the client goes away mid-request
const statusClientClosedRequest = 499

// TaskFetcher loads raw task documents by code
type TaskFetcher interface {
	FetchTask(ctx context.Context, code string) ([]byte, error)
}

// Handler serves the task API
type Handler struct {
	fetcher     TaskFetcher
	service     *services.ArtifactService
	corsOrigins []string
	mux         *http.ServeMux
	logger      *slog.Logger
}

// NewHandler creates a new Handler
func NewHandler(fetcher TaskFetcher, service *services.ArtifactService, cfg *config.ServerConfig) *Handler {
	h := &Handler{
		fetcher: fetcher,
		service: service,
		mux:     http.NewServeMux(),
		logger:  slog.Default(),
	}
	if cfg != nil {
		h.corsOrigins = cfg.CorsOrigins
	}

	h.mux.HandleFunc("GET /api/xctsk/{code}", h.getTask)
	h.mux.HandleFunc("GET /api/xctsk/{code}/{format}", h.exportTask)
	h.mux.HandleFunc("POST /api/xctsk", h.uploadTask)
	h.mux.HandleFunc("GET /api/qrcode_image/{file}", h.shareCode)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" && h.allowOrigin(origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) allowOrigin(origin string) bool {
	return slices.Contains(h.corsOrigins, "*") || slices.Contains(h.corsOrigins, origin)
}

// TaskResponse is the JSON body returned for a task
type TaskResponse struct {
	Code               string                  `json:"code,omitempty"`
	Metadata           services.Metadata       `json:"metadata"`
	Turnpoints         []services.TurnpointRow `json:"turnpoints"`
	OptimizedAvailable bool                    `json:"optimized_available"`
	GeoJSON            json.RawMessage         `json:"geojson"`
	SharePayload       string                  `json:"share_payload"`
	QRCodeURL          string                  `json:"qrcode_url,omitempty"`
}

func (h *Handler) getTask(w http.ResponseWriter, r *http.Request) {
	a, err := h.load(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeArtifacts(w, a)
}

func (h *Handler) exportTask(w http.ResponseWriter, r *http.Request) {
	a, err := h.load(r.Context(), r.PathValue("code"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	format := r.PathValue("format")
	data, contentType, err := a.Export(format)
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.Code+"."+format))
	h.write(w, data)
}

func (h *Handler) uploadTask(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadSize))
	if err != nil {
		h.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return
	}

	a, err := h.service.BuildFromDocument(data, "")
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeArtifacts(w, a)
}

func (h *Handler) shareCode(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	code, ok := strings.CutPrefix(file, "qrcode_")
	if ok {
		code, ok = strings.CutSuffix(code, ".png")
	}
	if !ok || code == "" {
		http.NotFound(w, r)
		return
	}

	a, err := h.load(r.Context(), code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	png, err := a.ShareCode()
	if err != nil {
		h.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	h.write(w, png)
}

func (h *Handler) load(ctx context.Context, code string) (*services.TaskArtifacts, error) {
	doc, err := h.fetcher.FetchTask(ctx, code)
	if err != nil {
		return nil, err
	}
	return h.service.BuildFromDocument(doc, code)
}

func (h *Handler) writeArtifacts(w http.ResponseWriter, a *services.TaskArtifacts) {
	geoJSON, err := a.GeoJSON()
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := TaskResponse{
		Code:               a.Code,
		Metadata:           a.Metadata,
		Turnpoints:         a.Rows,
		OptimizedAvailable: a.OptimizedAvailable(),
		GeoJSON:            geoJSON,
		SharePayload:       a.SharePayload(),
	}
	if a.Code != "" {
		resp.QRCodeURL = "/api/qrcode_image/qrcode_" + a.Code + ".png"
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error string `json:"error"`
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, xcontest.ErrTaskNotFound),
		errors.Is(err, services.ErrUnknownFormat):
		return http.StatusNotFound
	case errors.Is(err, xcontest.ErrInvalidCode),
		errors.Is(err, task.ErrInvalidTask),
		errors.Is(err, xctsk.ErrInvalidFormat),
		errors.Is(err, xctsk.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, xcontest.ErrDocumentTooLarge):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == statusClientClosedRequest {
		h.logger.Debug("Request cancelled", "error", err)
	} else if status >= 500 {
		h.logger.Error("Request failed", "status", status, "error", err)
	}
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}

func (h *Handler) write(w http.ResponseWriter, data []byte) {
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write response", "error", err)
	}
}
