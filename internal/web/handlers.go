package web

import (
	"bytes"
	"net/http"

	"github.com/JonMunkholm/catalog-import/internal/importer"
	"github.com/JonMunkholm/catalog-import/internal/logging"
)

const (
	templateFileName = "product-import-template.xlsx"
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTemplate serves the blank import workbook.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := importer.WriteTemplate(&buf); err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+templateFileName+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Error("template write failed", "error", err)
	}
}

// handleFields lists the canonical fields and the headers each accepts.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fields":  importer.Fields(),
		"headers": importer.TemplateHeaders,
	})
}

// handleStatus reports how many import slots are in use.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.imports.Limiter().Status())
}

// handleValidate runs the pipeline without submitting anything.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	s.runImport(w, r, importer.Options{DryRun: true})
}

// handleImport validates and submits the valid rows.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.runImport(w, r, importer.Options{})
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, opts importer.Options) {
	up, cleanup, err := readUpload(w, r, s.cfg.Import.MaxFileSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cleanup()

	report, err := s.imports.Run(r.Context(), up, opts)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}
