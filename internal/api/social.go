package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pagesift/pagesift/internal/social"
	"github.com/pagesift/pagesift/internal/types"
)

func (s *Server) handleTikHubTwitter(w http.ResponseWriter, r *http.Request) {
	var req social.Request
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := s.social.TikHubTwitter(r.Context(), &req)
	s.socialReply(w, "tikhub", req.Path, req.Params, res, err)
}

func (s *Server) handleTikHubTikTok(w http.ResponseWriter, r *http.Request) {
	var req social.Request
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := s.social.TikHubTikTok(r.Context(), &req)
	s.socialReply(w, "tikhub", req.Path, req.Params, res, err)
}

func (s *Server) handleTikHubGeneric(w http.ResponseWriter, r *http.Request) {
	var req social.GenericRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := s.social.TikHubGeneric(r.Context(), &req)
	s.socialReply(w, "tikhub", req.Service+"/"+req.Path, req.Params, res, err)
}

func (s *Server) handleRapidAPIInstagram(w http.ResponseWriter, r *http.Request) {
	var req social.Request
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := s.social.RapidAPIInstagram(r.Context(), &req)
	s.socialReply(w, "rapidapi", req.Path, req.Params, res, err)
}

func (s *Server) handleRapidAPITwitterV24(w http.ResponseWriter, r *http.Request) {
	var req social.Request
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := s.social.RapidAPITwitterV24(r.Context(), &req)
	s.socialReply(w, "rapidapi", req.Path, req.Params, res, err)
}

func (s *Server) handleRapidAPIGeneric(w http.ResponseWriter, r *http.Request) {
	var req social.HostRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	res, err := s.social.RapidAPIGeneric(r.Context(), &req)
	s.socialReply(w, "rapidapi", req.Host+"/"+req.Path, req.Params, res, err)
}

// socialReply writes the proxied outcome: the upstream status plus either
// parsed JSON or the raw text. JSON exchanges are persisted in the
// background when a result store is configured.
func (s *Server) socialReply(w http.ResponseWriter, source, path string, params map[string]any, res *social.Result, err error) {
	if err != nil {
		s.metrics.SocialRequests.WithLabelValues(source, "error").Inc()
		jsonError(w, http.StatusBadRequest, socialErrorMessage(err))
		return
	}
	s.metrics.SocialRequests.WithLabelValues(source, "ok").Inc()

	if s.results != nil && res.IsJSON {
		record := &types.SocialRecord{
			Source:      source,
			RequestPath: path,
			Params:      marshalParams(params),
			Payload:     res.Data,
		}
		go s.persistSocial(record)
	}

	if res.IsJSON {
		jsonResponse(w, http.StatusOK, map[string]any{"status": res.Status, "data": res.Data})
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"status": res.Status, "data_text": res.Text})
}

func (s *Server) persistSocial(record *types.SocialRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.results.SaveSocial(ctx, record); err != nil {
		s.logger.Error("persisting social exchange",
			"source", record.Source, "path", record.RequestPath, "error", err)
	}
}

// socialErrorMessage keeps credential errors verbatim and marks everything
// else as a failed upstream request.
func socialErrorMessage(err error) string {
	if errors.Is(err, social.ErrMissingTikHubToken) || errors.Is(err, social.ErrMissingRapidAPIKey) {
		return err.Error()
	}
	return "Request failed: " + err.Error()
}

func marshalParams(params map[string]any) json.RawMessage {
	if params == nil {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil
	}
	return data
}
