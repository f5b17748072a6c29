package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/platinummonkey/mockapi/pkg/jsonapi"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	return writeTyped(w, status, "application/json", data)
}

// WriteJSONAPI writes a JSON:API document with the given status code
func WriteJSONAPI(w http.ResponseWriter, status int, data interface{}) error {
	return writeTyped(w, status, jsonapi.MediaType, data)
}

func writeTyped(w http.ResponseWriter, status int, contentType string, data interface{}) error {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteCreated writes a successful creation response (201 Created) with JSON data
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// DetailResponse is the plain error envelope. Detail is a string for most
// errors and a list of field errors for validation failures.
type DetailResponse struct {
	Detail  interface{} `json:"detail"`
	Message string      `json:"message,omitempty"`
}

// WriteDetail writes a plain {"detail": ...} error response
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, DetailResponse{Detail: detail})
}

// WriteDetailMessage writes a plain error response with a summary message
func WriteDetailMessage(w http.ResponseWriter, status int, detail interface{}, message string) {
	WriteJSON(w, status, DetailResponse{Detail: detail, Message: message})
}

// WriteJSONAPIError writes a one-element JSON:API error document
func WriteJSONAPIError(w http.ResponseWriter, status int, title, detail string) {
	WriteJSONAPI(w, status, jsonapi.NewError(status, title, detail))
}
