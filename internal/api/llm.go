package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/npezzotti/studyroom/internal/llm"
)

const (
	maxUpstreamDetail  = 500
	maxExceptionDetail = 200

	errCodeInputRequired     = "message or messages is required"
	errCodeMissingCredential = "missing_openai_api_key"
	errCodeRequestFailed     = "llm_request_failed"
	errCodeEmptyResponse     = "empty_response"
	errCodeTimeout           = "llm_timeout"
	errCodeException         = "llm_exception"
)

type LLMChatRequest struct {
	Message  any             `json:"message"`
	Messages json.RawMessage `json:"messages"`
}

type LLMChatResponse struct {
	Reply string `json:"reply"`
}

func (s *StudyRoomApp) llmChat(w http.ResponseWriter, r *http.Request) {
	var req LLMChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.log.Debug().Err(err).Msg("decode llm chat request")
	}

	text := strings.TrimSpace(looseString(req.Message))
	messages, isList := parseMessages(req.Messages)
	if text == "" && !isList {
		s.writeJson(w, http.StatusBadRequest, LLMError{Error: errCodeInputRequired})
		return
	}
	if !isList {
		messages = []llm.Message{{Role: "user", Content: text}}
	}

	reply, err := s.llm.Chat(r.Context(), messages)
	if err != nil {
		status, body := llmErrorResponse(err)
		s.log.Warn().Err(err).Str("code", body.Error).Msg("llm chat failed")
		s.writeJson(w, status, body)
		return
	}

	s.writeJson(w, http.StatusOK, LLMChatResponse{Reply: reply})
}

// parseMessages reports whether raw is a JSON array and, if so, the
// messages it holds.
func parseMessages(raw json.RawMessage) ([]llm.Message, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}

	var messages []llm.Message
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, false
	}
	return messages, true
}

func llmErrorResponse(err error) (int, LLMError) {
	var upErr *llm.UpstreamError
	switch {
	case errors.Is(err, llm.ErrMissingCredential):
		return http.StatusBadRequest, LLMError{
			Error:   errCodeMissingCredential,
			Message: "set OPENAI_API_KEY in the environment or pass -openai-api-key",
		}
	case errors.As(err, &upErr):
		return http.StatusInternalServerError, LLMError{
			Error:  errCodeRequestFailed,
			Detail: truncate(upErr.Body, maxUpstreamDetail),
		}
	case errors.Is(err, llm.ErrEmptyResponse):
		return http.StatusInternalServerError, LLMError{Error: errCodeEmptyResponse}
	case errors.Is(err, llm.ErrTimeout):
		return http.StatusGatewayTimeout, LLMError{
			Error:  errCodeTimeout,
			Detail: truncate(err.Error(), maxExceptionDetail),
		}
	default:
		return http.StatusInternalServerError, LLMError{
			Error:  errCodeException,
			Detail: truncate(err.Error(), maxExceptionDetail),
		}
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
