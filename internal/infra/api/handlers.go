package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"ai-coach-chat/internal/infra/logging"
)

const maxBodyBytes = 64 << 10

// handle runs fn and renders its error, if any, with the mapped code.
func (s *Server) handle(fn func(w http.ResponseWriter, r *http.Request, userID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFrom(r.Context())
		if !ok {
			writeError(w, errUnauthorized)
			return
		}
		if err := fn(w, r, userID); err != nil {
			e := mapError(err)
			if e.status >= http.StatusInternalServerError {
				logging.With(r.Context(), s.log).Error().Err(err).Msg("request failed")
			}
			writeError(w, e)
		}
	}
}

func (s *Server) createGreeting(w http.ResponseWriter, r *http.Request, userID string) error {
	g, err := s.query.CreateGreeting(r.Context(), userID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, GreetingResponse{
		ConversationID:   g.ConversationID,
		AssistantMessage: toMessageResponse(g.AssistantMessage),
	})
	return nil
}

func (s *Server) createQuestion(w http.ResponseWriter, r *http.Request, userID string) error {
	var req QuestionRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, errInvalidRequest)
		return nil
	}
	h, err := s.jobs.CreateJob(r.Context(), userID, req.Question, req.ConversationID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, ChatJobResponse{
		ConversationID:     h.ConversationID,
		JobID:              h.JobID,
		AssistantMessageID: h.AssistantMessageID,
		Status:             string(h.Status),
	})
	return nil
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request, userID string) error {
	var jobID string
	if err := bindPathParam(r, "jobId", &jobID); err != nil {
		writeError(w, errInvalidRequest)
		return nil
	}
	v, err := s.query.GetJobStatus(r.Context(), userID, jobID)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, toJobStatusResponse(v))
	return nil
}

func (s *Server) getConversationMessages(w http.ResponseWriter, r *http.Request, userID string) error {
	var conversationID string
	if err := bindPathParam(r, "conversationId", &conversationID); err != nil {
		writeError(w, errInvalidRequest)
		return nil
	}
	tr, err := s.query.GetConversation(r.Context(), userID, conversationID)
	if err != nil {
		return err
	}
	out := ConversationResponse{
		ConversationID: tr.ConversationID,
		Messages:       make([]MessageResponse, 0, len(tr.Messages)),
	}
	for _, m := range tr.Messages {
		out.Messages = append(out.Messages, toMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func bindPathParam(r *http.Request, name string, dest *string) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return err
	}
	if *dest == "" {
		return errors.New(name + " is empty")
	}
	return nil
}
