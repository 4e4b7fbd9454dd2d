package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/zombor/billed/internal/bill"
)

const maxUploadSize = int64(10 << 20)

// writeJSON writes v with the given status code
func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Error encoding response", zap.Error(err))
	}
}

// writeError maps service errors onto status codes
func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, bill.ErrInvalidFileType):
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": bill.InvalidFileTypeMessage})
	case errors.Is(err, ErrInvalidBill):
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		s.log.Error("Request failed", zap.String("op", op), zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// handleListBills returns every bill
func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.service.ListBills()
	if err != nil {
		s.writeError(w, "listing bills", err)
		return
	}

	if bills == nil {
		bills = []*bill.Bill{}
	}
	s.writeJSON(w, http.StatusOK, bills)
}

// handleCreateBill creates a bill from a JSON body
func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	var req bill.Bill
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	created, err := s.service.CreateBill(req)
	if err != nil {
		s.writeError(w, "creating bill", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

// handleUpdateBill applies the JSON body to the bill named in the path
func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Bill ID required", http.StatusBadRequest)
		return
	}

	patch, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := s.service.UpdateBill(id, patch)
	if err != nil {
		s.writeError(w, "updating bill", err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// handleUploadFile stores a justification file and stages a bill for it
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.log.Warn("Error parsing multipart form", zap.Error(err))
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Error parsing form"})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.log.Error("Error reading file data", zap.String("filename", header.Filename), zap.Error(err))
		http.Error(w, "Error reading file", http.StatusInternalServerError)
		return
	}

	ref, err := s.service.StageFile(header.Filename, data, header.Header.Get("Content-Type"), r.FormValue("email"))
	if err != nil {
		s.writeError(w, "staging file", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ref)
}

// handleGetFile returns the bytes of a stored file
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetFile(r.PathValue("key"))
	if err != nil {
		s.writeError(w, "getting file", err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}
