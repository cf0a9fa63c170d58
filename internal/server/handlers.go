package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"reviewsheet/internal"
	"reviewsheet/internal/pipeline"
)

func (s *Server) handleListPlatforms(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": pipeline.Policies(),
	})
}

func (s *Server) handleDirectory(w http.ResponseWriter, r *http.Request) {
	dir := s.svc.Directory()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"version":        dir.Version,
		"guides":         dir.Guides(),
		"cities":         dir.Cities(),
		"tours":          dir.Tours(),
		"strip_prefixes": dir.StripPrefixes(),
	})
}

func platformParam(r *http.Request) (internal.Platform, bool) {
	return internal.ParsePlatform(chi.URLParam(r, "platform"))
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	blob, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "Failed to read body: "+err.Error())
		return nil, false
	}
	return blob, true
}

// handlePropose is the first half of the city confirmation: the extension
// shows the proposal, then posts the export with ?city= set to the answer.
func (s *Server) handlePropose(w http.ResponseWriter, r *http.Request) {
	platform, ok := platformParam(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown platform")
		return
	}
	blob, ok := readBody(w, r)
	if !ok {
		return
	}
	doc, err := pipeline.DecodeBundles(blob)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	policy, err := pipeline.PolicyFor(platform)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	asm := pipeline.NewAssembler(s.svc.Directory(), policy)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"platform": platform,
		"city":     asm.ProposeCity(doc.Bundles),
		"bundles":  len(doc.Bundles),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	platform, ok := platformParam(r)
	if !ok {
		respondError(w, http.StatusNotFound, "Unknown platform")
		return
	}
	format := exportFormat(r)
	if format == "" {
		respondError(w, http.StatusBadRequest, "format must be tsv, xlsx or json")
		return
	}
	blob, ok := readBody(w, r)
	if !ok {
		return
	}

	res, err := s.svc.Run(r.Context(), pipeline.RunRequest{
		Platform:  platform,
		Source:    pipeline.JSONSource{Blob: blob},
		Overrides: pipeline.Overrides{City: r.URL.Query().Get("city")},
	})
	switch {
	case errors.Is(err, pipeline.ErrNothingFound):
		respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": "No reviews found",
			"stats": res.Stats,
		})
		return
	case errors.Is(err, pipeline.ErrUnsupportedInput):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "Export failed: "+err.Error())
		return
	}

	w.Header().Set("X-Reviewsheet-Dropped", strconv.Itoa(res.Stats.Dropped))
	switch format {
	case "json":
		respondJSON(w, http.StatusOK, res)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-%s.xlsx"`, platform, res.TraceID))
		if err := pipeline.WriteXLSX(w, res.Records); err != nil {
			s.log.Error().Err(err).Str("trace", res.TraceID).Msg("xlsx write failed")
		}
	default:
		w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, res.Table)
	}
}

func exportFormat(r *http.Request) string {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	switch format {
	case "":
		return "tsv"
	case "tsv", "xlsx", "json":
		return format
	default:
		return ""
	}
}
