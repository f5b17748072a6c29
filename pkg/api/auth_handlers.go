package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/mockapi/pkg/apierrors"
	"github.com/platinummonkey/mockapi/pkg/auth"
	"github.com/platinummonkey/mockapi/pkg/catalog"
	"github.com/platinummonkey/mockapi/pkg/httputil"
	"github.com/platinummonkey/mockapi/pkg/jsonapi"
	"github.com/platinummonkey/mockapi/pkg/middleware"
)

// loginEnvelope is the top-level key of the login body
const loginEnvelope = "public_v1_user"

// AuthHandlers handles session login
type AuthHandlers struct {
	authn      *auth.Authenticator
	audit      *auth.AuditLogger
	writeError middleware.ErrorWriter
}

// NewAuthHandlers creates a new auth handlers instance. audit may be nil.
func NewAuthHandlers(authn *auth.Authenticator, audit *auth.AuditLogger, writeError middleware.ErrorWriter) *AuthHandlers {
	return &AuthHandlers{authn: authn, audit: audit, writeError: writeError}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/users/login", h.login).Methods(http.MethodPost)
}

// loginRequest is the decoded {public_v1_user: {email, password}} body
type loginRequest struct {
	Email    string
	Password string
}

// login handles POST /users/login. The token is returned in the
// Authorization response header; the body carries the user.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	body, err := httputil.ReadBody(r)
	if err != nil {
		h.writeError(w, r, bodyError(err))
		return
	}
	req, err := parseLogin(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.authn.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if h.audit != nil {
			h.audit.LogFromRequest(r, auth.ActionLogin, req.Email, auth.StatusFailure, err)
		}
		h.writeError(w, r, err)
		return
	}
	if h.audit != nil {
		h.audit.LogFromRequest(r, auth.ActionLogin, req.Email, auth.StatusSuccess, nil)
	}

	w.Header().Set("Authorization", "Bearer "+result.Token)
	user := jsonapi.NewResource(result.UserID, catalog.Users.Type(), result.Attributes)
	httputil.WriteJSONAPI(w, http.StatusOK, jsonapi.Single(user))
}

// parseLogin validates the login body and reports every problem as a
// field error
func parseLogin(body []byte) (*loginRequest, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, apierrors.Validation(apierrors.FieldError{
			Loc: []string{"body"}, Msg: "Field required", Type: "missing",
		})
	}

	if !json.Valid(body) {
		return nil, apierrors.Validation(apierrors.FieldError{
			Loc: []string{"body"}, Msg: "JSON decode error", Type: "json_invalid",
		})
	}
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil || outer == nil {
		return nil, apierrors.Validation(apierrors.FieldError{
			Loc:  []string{"body"},
			Msg:  "Input should be a valid dictionary or object to extract fields from",
			Type: "model_attributes_type",
		})
	}

	raw, ok := outer[loginEnvelope]
	if !ok {
		return nil, apierrors.Validation(apierrors.FieldError{
			Loc: []string{"body", loginEnvelope}, Msg: "Field required", Type: "missing",
		})
	}
	var inner map[string]json.RawMessage
	if err := json.Unmarshal(raw, &inner); err != nil || inner == nil {
		return nil, apierrors.Validation(apierrors.FieldError{
			Loc:  []string{"body", loginEnvelope},
			Msg:  "Input should be a valid dictionary or object to extract fields from",
			Type: "model_attributes_type",
		})
	}

	var (
		req    loginRequest
		fields []apierrors.FieldError
	)
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"email", &req.Email},
		{"password", &req.Password},
	} {
		loc := []string{"body", loginEnvelope, f.name}
		v, ok := inner[f.name]
		if !ok {
			fields = append(fields, apierrors.FieldError{Loc: loc, Msg: "Field required", Type: "missing"})
			continue
		}
		if string(v) == "null" || json.Unmarshal(v, f.dst) != nil {
			fields = append(fields, apierrors.FieldError{Loc: loc, Msg: "Input should be a valid string", Type: "string_type"})
		}
	}
	if len(fields) > 0 {
		return nil, apierrors.Validation(fields...)
	}
	return &req, nil
}
