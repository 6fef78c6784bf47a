package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"gofinances/internal/core"
	"gofinances/internal/middleware/trace"
	"gofinances/internal/services"
)

type categoryJSON struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type transactionJSON struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Value    float64      `json:"value"`
	Type     string       `json:"type"`
	Category categoryJSON `json:"category"`
}

type balanceJSON struct {
	Income  float64 `json:"income"`
	Outcome float64 `json:"outcome"`
	Total   float64 `json:"total"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:    t.ID,
		Title: t.Title,
		Value: t.Value.Float64(),
		Type:  string(t.Type),
		Category: categoryJSON{
			ID:    t.Category.ID,
			Title: t.Category.Title,
		},
	}
}

func toBalanceJSON(b core.Balance) balanceJSON {
	return balanceJSON{
		Income:  b.Income.Float64(),
		Outcome: b.Outcome.Float64(),
		Total:   b.Total.Float64(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the core error taxonomy onto transport responses:
// validation and balance rejections are the caller's fault, a missing
// transaction is 404, everything else is a server-side failure.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsValidationError(err), errors.Is(err, core.ErrInsufficientBalance):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrTransactionNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"request_id", trace.RequestID(r.Context()),
			"error", err, "method", r.Method, "url", r.URL.Path)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	transactions, balance, err := s.transactions.ListTransactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionJSON, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionJSON(t))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"balance":      toBalanceJSON(balance),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title    string      `json:"title"`
		Value    json.Number `json:"value"`
		Type     string      `json:"type"`
		Category string      `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	value, err := core.ParseAmount(body.Value.String())
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.transactions.CreateTransaction(r.Context(), services.CreateTransactionInput{
		Title:         body.Title,
		Value:         value,
		Type:          core.TransactionType(body.Type),
		CategoryTitle: body.Category,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionJSON(created))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.deletions.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleImportTransactions spools the uploaded file to the upload dir and
// runs the import pipeline on it. The pipeline owns the spooled file from
// then on and deletes it after a successful commit.
func (s *Server) handleImportTransactions(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing file upload"})
		return
	}
	defer file.Close()

	path, err := s.spoolUpload(file)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to spool upload",
			"error", err, "filename", header.Filename)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not store upload"})
		return
	}

	result, err := s.imports.ImportFile(r.Context(), path)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]transactionJSON, 0, len(result.Transactions))
	for _, t := range result.Transactions {
		out = append(out, toTransactionJSON(t))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": out,
		"skipped_rows": result.Skipped,
	})
}

func (s *Server) spoolUpload(src io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.uploadDir, "import-*.csv")
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}

	return filepath.Clean(tmp.Name()), nil
}
