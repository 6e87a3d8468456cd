package api

import (
	"encoding/json"
	"io"
	"net/http"

	"text2phenotype.com/hmmpos/pipeline"
	"text2phenotype.com/hmmpos/types"

	"github.com/google/uuid"
)

const maxBodyBytes = 8 << 20

// Handler serves tagging requests against the loaded profiles.
type Handler struct {
	Params   pipeline.Params
	Pipeline pipeline.Pipeline
}

func NewHandler(params pipeline.Params) *Handler {
	return &Handler{
		Params:   params,
		Pipeline: pipeline.NewTaggingPipeline(params),
	}
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/tag", h.Tag)
	mux.HandleFunc("/profiles", h.Profiles)
	return mux
}

// Tag tags the plain text body with the profile named by the "profile"
// query parameter, or the default profile.
func (h *Handler) Tag(w http.ResponseWriter, r *http.Request) {
	tid := uuid.NewString()
	logger := makeRequestLogger(r, tid)
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		logger.Warn().Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		writeError(w, tid, http.StatusMethodNotAllowed, "only POST is allowed")
		return
	}

	profileName := r.URL.Query().Get("profile")
	profile, ok := h.Params.Profile(profileName)
	if !ok {
		logger.Warn().Int("status", http.StatusNotFound).Str("profile", profileName).Msg("Unknown profile")
		writeError(w, tid, http.StatusNotFound, pipeline.ErrUnknownProfile.Error())
		return
	}

	msg, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		writeError(w, tid, http.StatusBadRequest, "could not read request body")
		return
	}

	request := pipeline.Request{
		Tid:     tid,
		Text:    string(msg),
		Profile: profile.Config.Name,
	}
	logger.Info().Str("profile", request.Profile).Msg("Starting pipeline for request from API")
	select {
	case resp, ok := <-h.Pipeline(request):
		if !ok {
			logger.Error().Int("status", http.StatusInternalServerError).Msg("Pipeline returned no response")
			writeError(w, tid, http.StatusInternalServerError, "tagging failed")
			return
		}
		_, _ = io.WriteString(w, resp)
	case <-r.Context().Done():
		logger.Warn().Err(r.Context().Err()).Msg("Client went away")
		return
	}
	logger.Info().Int("status", http.StatusOK).Msg("Finished processing request")
}

func (h *Handler) Profiles(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodGet {
		writeError(w, "", http.StatusMethodNotAllowed, "only GET is allowed")
		return
	}
	infos := make([]pipeline.ProfileInfo, 0, len(h.Params.Profiles))
	for _, name := range h.Params.Names() {
		infos = append(infos, h.Params.Profiles[name].Info())
	}
	_ = json.NewEncoder(w).Encode(struct {
		Default  string                 `json:"default"`
		Profiles []pipeline.ProfileInfo `json:"profiles"`
	}{h.Params.DefaultProfile, infos})
}

func writeError(w http.ResponseWriter, tid string, status int, msg string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Tid: tid, Error: msg})
}
