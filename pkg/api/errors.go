package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/platinummonkey/mockapi/pkg/apierrors"
	"github.com/platinummonkey/mockapi/pkg/httputil"
	"github.com/platinummonkey/mockapi/pkg/jsonapi"
	"github.com/platinummonkey/mockapi/pkg/observability"
	"github.com/sirupsen/logrus"
)

// validationMessage is the summary sent with plain validation failures
const validationMessage = "Validation error"

// errorRenderer translates errors into HTTP responses. Paths under one of
// the JSON:API prefixes get an {"errors": [...]} document; everything else
// gets {"detail": ...}.
type errorRenderer struct {
	prefixes []string
	log      *logrus.Logger
}

func newErrorRenderer(prefixes []string, log *logrus.Logger) *errorRenderer {
	cleaned := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimRight(strings.TrimSpace(p), "/")
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return &errorRenderer{prefixes: cleaned, log: log}
}

// isJSONAPI reports whether path belongs to a JSON:API endpoint family.
// A prefix matches on whole segments only.
func (e *errorRenderer) isJSONAPI(path string) bool {
	for _, p := range e.prefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// write renders err for r
func (e *errorRenderer) write(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := apierrors.As(err)
	status := apiErr.Kind.Status()
	detail := apiErr.Detail
	if detail == "" {
		detail = apiErr.Kind.Title()
	}

	entry := observability.FromContext(r.Context(), e.log).WithField("kind", apiErr.Kind.String())
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error("Request failed")
	} else {
		entry.WithField("detail", detail).Debug("Request rejected")
	}

	if e.isJSONAPI(r.URL.Path) {
		if apiErr.Kind == apierrors.KindValidation && len(apiErr.Fields) > 0 {
			httputil.WriteJSONAPI(w, status, validationDocument(apiErr.Fields))
			return
		}
		httputil.WriteJSONAPIError(w, status, apiErr.Kind.Title(), detail)
		return
	}

	if apiErr.Kind == apierrors.KindValidation {
		fields := apiErr.Fields
		if fields == nil {
			fields = []apierrors.FieldError{}
		}
		httputil.WriteDetailMessage(w, status, fields, validationMessage)
		return
	}
	httputil.WriteDetail(w, status, detail)
}

// validationDocument renders one JSON:API error per invalid field
func validationDocument(fields []apierrors.FieldError) jsonapi.ErrorDocument {
	doc := jsonapi.ErrorDocument{Errors: make([]jsonapi.ErrorObject, 0, len(fields))}
	for _, f := range fields {
		doc.Errors = append(doc.Errors, jsonapi.ErrorObject{
			Status: strconv.Itoa(http.StatusUnprocessableEntity),
			Title:  apierrors.KindValidation.Title(),
			Detail: strings.Join(f.Loc, ".") + ": " + f.Msg,
		})
	}
	return doc
}

// notFound handles requests that match no route
func (e *errorRenderer) notFound(w http.ResponseWriter, r *http.Request) {
	e.write(w, r, apierrors.NotFound("Not Found"))
}

// methodNotAllowed handles requests whose path matched but method did not
func (e *errorRenderer) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	e.write(w, r, &apierrors.Error{Kind: apierrors.KindMethodNotAllowed, Detail: "Method Not Allowed"})
}

// internal handles recovered panics
func (e *errorRenderer) internal(w http.ResponseWriter, r *http.Request) {
	e.write(w, r, apierrors.Internal("Internal server error", nil))
}
