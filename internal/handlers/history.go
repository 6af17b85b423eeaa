package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tejaspavanb/DeepFake/internal/dto"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services"
)

// HistoryHandler lists stored analyses newest first, with filtering and
// pagination. Response is JSON of type dto.HistoryData.
func HistoryHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), 24)

		filter := &model.AnalysisFilter{
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}
		if kind, ok := model.ParseKind(q.Get("kind")); ok {
			filter.Kind = kind
		}
		if v := q.Get("verdict"); v != "" {
			filter.Verdict = model.ParseVerdict(v)
		}

		analyses, err := manager.History().GetAll(filter)
		if err != nil {
			logger.Error("Error loading analyses: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		total, err := manager.History().GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting analyses: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load history")
			return
		}
		size, err := manager.UploadStore().Size()
		if err != nil {
			logger.Warning("Error measuring upload directory: %v", err)
		}

		items := make([]dto.HistoryItem, 0, len(analyses))
		for _, a := range analyses {
			items = append(items, dto.NewHistoryItem(a))
		}

		writeJSON(w, http.StatusOK, dto.HistoryData{
			Items:       items,
			Size:        size,
			Length:      total,
			TotalPages:  (total + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		})
	}
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

// GetAnalysisHandler returns one stored analysis with its metadata and frames.
func GetAnalysisHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid analysis id")
			return
		}

		a, err := manager.History().GetByID(id)
		if err != nil {
			logger.Error("Error loading analysis %d: %v", id, err)
			writeError(w, http.StatusInternalServerError, "failed to load analysis")
			return
		}
		if a == nil {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		writeJSON(w, http.StatusOK, dto.FromAnalysis(a))
	}
}

// DeleteAnalysisHandler removes one analysis and its stored upload.
func DeleteAnalysisHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(r)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid analysis id")
			return
		}

		found, err := manager.DeleteAnalysis(id)
		if err != nil {
			logger.Error("Error deleting analysis %d: %v", id, err)
			writeError(w, http.StatusInternalServerError, "failed to delete analysis")
			return
		}
		if !found {
			writeError(w, http.StatusNotFound, "analysis not found")
			return
		}
		logger.Info("🗑️  Analysis %d deleted", id)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ClearHistoryHandler deletes every analysis and stored upload.
func ClearHistoryHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := manager.ClearHistory(); err != nil {
			logger.Error("Error clearing history: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to clear history")
			return
		}
		logger.Info("All analyses cleared from history and %s", manager.UploadStore().Dir())
		w.WriteHeader(http.StatusNoContent)
	}
}

// StatsHandler reports totals per kind and verdict.
func StatsHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := manager.History().GetStats()
		if err != nil {
			logger.Error("Error loading stats: %v", err)
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
