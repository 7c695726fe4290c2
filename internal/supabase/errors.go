package supabase

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from PostgREST or GoTrue.
type APIError struct {
	Path    string
	Status  int
	Code    string
	Message string
	Details string
	Hint    string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	return msg
}

// decodeAPIError understands both PostgREST ({code,message,details,hint}) and
// GoTrue ({code,error_code,msg} or {error,error_description}) bodies.
func decodeAPIError(path string, status int, body []byte) *APIError {
	apiErr := &APIError{Path: path, Status: status}

	var raw struct {
		Code             json.RawMessage `json:"code"`
		ErrorCode        string          `json:"error_code"`
		Message          string          `json:"message"`
		Msg              string          `json:"msg"`
		Error            string          `json:"error"`
		ErrorDescription string          `json:"error_description"`
		Details          string          `json:"details"`
		Hint             string          `json:"hint"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		apiErr.Message = truncateBody(body)
		return apiErr
	}

	apiErr.Code = raw.ErrorCode
	if code := strings.TrimSpace(string(raw.Code)); apiErr.Code == "" && code != "" && code != "null" {
		apiErr.Code = strings.Trim(code, `"`)
	}
	if apiErr.Code == "" {
		apiErr.Code = raw.Error
	}
	apiErr.Message = firstNonEmpty(raw.Message, raw.Msg, raw.ErrorDescription, raw.Error)
	apiErr.Details = raw.Details
	apiErr.Hint = raw.Hint
	return apiErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func truncateBody(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
