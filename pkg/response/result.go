package response

import (
	"encoding/json"
	"net/http"

	pkgErrors "github.com/vogiaan1904/ticketbottle-reservation/pkg/errors"
)

// Result is the envelope every operation reports to its caller.
type Result struct {
	Success bool   `json:"success"`
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func OK(data any) Result {
	return Result{Success: true, Status: http.StatusOK, Data: data}
}

func Created(data any) Result {
	return Result{Success: true, Status: http.StatusCreated, Data: data}
}

// FromError maps a service error onto the envelope. Unclassified errors
// become a 500 with a generic message so internals do not leak.
func FromError(err error) Result {
	httpErr := pkgErrors.AsHTTPError(err)
	return Result{
		Success: false,
		Status:  httpErr.StatusCode,
		Error:   httpErr.Message,
	}
}

// Build returns FromError(err) when err is set and a success envelope with
// the given status otherwise.
func Build(data any, err error, successStatus int) Result {
	if err != nil {
		return FromError(err)
	}
	return Result{Success: true, Status: successStatus, Data: data}
}

func WriteJSON(w http.ResponseWriter, res Result) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.Status)
	return json.NewEncoder(w).Encode(res)
}
