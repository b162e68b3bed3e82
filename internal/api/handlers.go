package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/workflow"
	errx "github.com/Chative-core-poc-v1/agentic-rag/internal/core/error"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/ingest"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
)

const (
	maxUploadMemory = 32 << 20
	maxFileBytes    = 20 << 20
)

// QueryRequest is the body of POST /sessions/{id}/queries.
type QueryRequest struct {
	Query string `json:"query"`
}

// ActionRequest is the body of POST /sessions/{id}/actions.
type ActionRequest struct {
	Action   string `json:"action"`
	Feedback string `json:"feedback,omitempty"`
}

// SessionResponse is the full state of a session.
type SessionResponse struct {
	ID string `json:"id"`
	*model.SessionState
}

type errorResponse struct {
	Error string `json:"error"`
}

type handler struct {
	sessions *Sessions
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	orch, err := h.sessions.Create(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stateOf(orch))
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	orch, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(orch))
}

func (h *handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) submitQuery(w http.ResponseWriter, r *http.Request) {
	orch, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req QueryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := orch.Submit(r.Context(), req.Query); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(orch))
}

func (h *handler) resume(w http.ResponseWriter, r *http.Request) {
	orch, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	var req ActionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	action, ok := model.ParseAction(req.Action)
	if !ok {
		writeError(w, errx.Validation(fmt.Errorf("unknown action %q", req.Action)))
		return
	}
	if err := orch.Resume(r.Context(), action, req.Feedback); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(orch))
}

func (h *handler) dismiss(w http.ResponseWriter, r *http.Request) {
	orch, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := orch.Dismiss(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(orch))
}

func (h *handler) reset(w http.ResponseWriter, r *http.Request) {
	orch, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := orch.NewSession(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(orch))
}

func (h *handler) uploadDocuments(w http.ResponseWriter, r *http.Request) {
	orch, err := h.sessions.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	files, err := readFiles(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := orch.Ingest(r.Context(), files); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateOf(orch))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readFiles reads every "files" part of a multipart upload.
func readFiles(r *http.Request) ([]ingest.File, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, errx.New(err, http.StatusBadRequest, "invalid multipart upload")
	}
	headers := r.MultipartForm.File["files"]
	files := make([]ingest.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, errx.Ingestion(fh.Filename, err)
		}
		data, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
		f.Close()
		if err != nil {
			return nil, errx.Ingestion(fh.Filename, err)
		}
		if len(data) > maxFileBytes {
			return nil, errx.New(fmt.Errorf("%s exceeds %d bytes", fh.Filename, maxFileBytes),
				http.StatusRequestEntityTooLarge, "file too large: "+fh.Filename)
		}
		files = append(files, ingest.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errx.New(err, http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func stateOf(orch *workflow.Orchestrator) SessionResponse {
	return SessionResponse{ID: orch.ID(), SessionState: orch.State()}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := errx.StatusOf(err)
	msg := errx.SafeMessage(err)
	var appErr *errx.AppError
	if !errors.As(err, &appErr) || status >= http.StatusInternalServerError {
		logx.Error().Err(err).Int("status", status).Msg("Request failed")
	}
	if !errors.As(err, &appErr) {
		msg = errx.SystemErrorMessage
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
