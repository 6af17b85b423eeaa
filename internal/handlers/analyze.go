package handlers

import (
	"net/http"
	"strconv"

	"github.com/tejaspavanb/DeepFake/internal/dto"
	"github.com/tejaspavanb/DeepFake/internal/logger"
	"github.com/tejaspavanb/DeepFake/internal/middleware"
	"github.com/tejaspavanb/DeepFake/internal/model"
	"github.com/tejaspavanb/DeepFake/internal/services"
	"github.com/tejaspavanb/DeepFake/internal/services/intake"
	"github.com/tejaspavanb/DeepFake/internal/services/session"
)

// AnalyzeHandler accepts one file for the page of the given kind and replies
// with the analysis as JSON. With ?async=1 it replies 202 as soon as the file
// is queued and the result arrives over /api/events. An empty kind detects
// the page from the file content.
func AnalyzeHandler(manager *services.Manager, in *intake.Intake, logger *logger.Logger, kind model.MediaKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file, err := in.Parse(w, r, kind)
		if err != nil {
			logger.Warning("Rejected upload on %s: %v", r.URL.Path, err)
			writeError(w, statusFor(err), err.Error())
			return
		}

		ticket, err := manager.Submit(middleware.SessionID(r), file)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
			writeJSON(w, http.StatusAccepted, dto.QueuedResponse{
				Kind:       string(file.Kind),
				Generation: ticket.Token.Generation,
				State:      string(session.StateLoading),
				PreviewURL: ticket.PreviewURL,
			})
			return
		}

		result, err := ticket.Wait(r.Context())
		if r.Context().Err() != nil {
			return
		}
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		resp := dto.FromAnalysis(result)
		resp.Generation = ticket.Token.Generation
		writeJSON(w, http.StatusOK, resp)
	}
}
