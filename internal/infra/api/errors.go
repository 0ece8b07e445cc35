package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"ai-coach-chat/internal/domain"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type apiError struct {
	status  int
	code    string
	message string
}

var (
	errInvalidQuestion      = apiError{http.StatusBadRequest, "AI_CHAT_INVALID_QUESTION", "질문이 비어 있습니다."}
	errInvalidRequest       = apiError{http.StatusBadRequest, "INVALID_REQUEST", "요청 값이 올바르지 않습니다."}
	errUnauthorized         = apiError{http.StatusUnauthorized, "AUTH_UNAUTHORIZED", "액세스 토큰이 유효하지 않습니다."}
	errConversationNotFound = apiError{http.StatusNotFound, "AI_CHAT_CONVERSATION_NOT_FOUND", "대화를 찾을 수 없습니다."}
	errJobNotFound          = apiError{http.StatusNotFound, "AI_CHAT_JOB_NOT_FOUND", "요청한 챗봇 작업을 찾을 수 없습니다."}
	errInternal             = apiError{http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "서버 오류가 발생했습니다."}
)

// mapError classifies use case errors. Order matters: the specific
// not-found and invalid-argument errors wrap the generic ones.
func mapError(err error) apiError {
	switch {
	case errors.Is(err, domain.ErrInvalidQuestion):
		return errInvalidQuestion
	case errors.Is(err, domain.ErrInvalidArgument):
		return errInvalidRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return errUnauthorized
	case errors.Is(err, domain.ErrConversationNotFound):
		return errConversationNotFound
	case errors.Is(err, domain.ErrChatJobNotFound):
		return errJobNotFound
	default:
		return errInternal
	}
}

func writeError(w http.ResponseWriter, e apiError) {
	writeJSON(w, e.status, ErrorResponse{Status: e.status, Code: e.code, Message: e.message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
