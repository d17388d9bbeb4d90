package api

import (
	"io"
	"net/http"

	"github.com/nugget/lifeboard/internal/storage"
)

// handleExport downloads the whole document as a dated JSON file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	name := storage.ExportFileName(s.ctl.Now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := storage.Export(w, s.ctl.Snapshot()); err != nil {
		s.logger.Debug("export write failed", "error", err)
	}
}

// handleImport replaces the document with the uploaded backup. Nothing
// changes unless the whole body parses.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	doc, err := storage.Import(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		s.logger.Warn("import rejected", "error", err)
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	s.ctl.Replace(doc)
	s.logger.Info("document imported",
		"habits", len(doc.Habits),
		"bills", len(doc.Bills),
		"tasks", len(doc.MissionControl.Tasks),
	)
	s.changed(w, true)
}
