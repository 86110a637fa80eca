package apperror

import (
	"encoding/json"
	"net/http"
)

// Body is the error half of the response envelope.
type Body struct {
	Code       string         `json:"code"`
	StatusCode int            `json:"statusCode"`
	Details    map[string]any `json:"details,omitempty"`
}

// Response is the JSON envelope written for every failed request.
type Response struct {
	Error   Body   `json:"error"`
	Message string `json:"message"`
}

// ToResponse builds the envelope for err. With exposeInternal set, the
// cause of an internal error is included under details.cause.
func ToResponse(err error, exposeInternal bool) Response {
	appErr := From(err)

	details := appErr.Details
	if exposeInternal && appErr.Kind == KindInternal && appErr.Err != nil {
		details = make(map[string]any, len(appErr.Details)+1)
		for k, v := range appErr.Details {
			details[k] = v
		}
		details["cause"] = appErr.Err.Error()
	}

	return Response{
		Error: Body{
			Code:       appErr.Kind.String(),
			StatusCode: appErr.StatusCode(),
			Details:    details,
		},
		Message: appErr.Message,
	}
}

// Write renders err as a JSON envelope with the matching status code.
func Write(w http.ResponseWriter, err error, exposeInternal bool) {
	resp := ToResponse(err, exposeInternal)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Error.StatusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
