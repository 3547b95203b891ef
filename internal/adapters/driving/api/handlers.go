package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// StatusResponse is the body of GET /.
type StatusResponse struct {
	Service   string `json:"service"`
	EnableRAG bool   `json:"enable_rag"`
	EnableNER bool   `json:"enable_ner"`
	Sessions  int    `json:"sessions"`
}

// UploadResponse is the body of POST /upload.
type UploadResponse struct {
	SessionID string                `json:"session_id"`
	Uploaded  []domain.UploadedFile `json:"uploaded"`
	Failed    []FailedFile          `json:"failed"`
	RAGReady  bool                  `json:"rag_ready"`
}

// FailedFile reports a file that could not be ingested.
type FailedFile struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Service:   ServiceName,
		EnableRAG: s.config.EnableRAG,
		EnableNER: s.config.EnableNER,
		Sessions:  s.ports.Sessions.Len(),
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: parsing upload: %w", domain.ErrInvalidInput, err))
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: no files uploaded", domain.ErrInvalidInput))
		return
	}

	files := make([]domain.RawDocument, 0, len(headers))
	for _, fh := range headers {
		raw, err := readPart(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		files = append(files, raw)
	}

	result, err := s.ports.Ingest.Upload(r.Context(), r.FormValue("session_id"), files)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	resp := UploadResponse{
		SessionID: result.SessionID,
		Uploaded:  result.Uploaded,
		Failed:    make([]FailedFile, 0, len(result.Failed)),
		RAGReady:  result.RAGReady,
	}
	if resp.Uploaded == nil {
		resp.Uploaded = []domain.UploadedFile{}
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, FailedFile{Filename: f.Filename, Error: f.Message()})
	}

	status := http.StatusOK
	if len(resp.Uploaded) == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, resp)
}

func readPart(fh *multipart.FileHeader) (domain.RawDocument, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	return domain.RawDocument{
		Filename: filepath.Base(fh.Filename),
		MIMEType: fh.Header.Get("Content-Type"),
		Content:  content,
	}, nil
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAskBytes)
	var req domain.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: decoding request: %w", domain.ErrInvalidInput, err))
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: session_id is required", domain.ErrInvalidInput))
		return
	}

	answer, err := s.ports.Answer.Answer(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.ports.Sessions.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
