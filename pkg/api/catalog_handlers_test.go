package api

import (
	"net/http"
	"testing"

	"github.com/platinummonkey/mockapi/pkg/jsonapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListCollection(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/schools", nil, env.bearer(t, "albi@example.edu"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, jsonapi.MediaType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{
		"data": [
			{"id": "1", "type": "schools", "attributes": {"name": "School of Computer Science"}},
			{"id": "2", "type": "schools", "attributes": {"name": "School of Law"}},
			{"id": "3", "type": "schools", "attributes": {"name": "School of Music"}}
		],
		"links": {
			"first": "http://example.com/api/v1/schools?page%5Bnumber%5D=1&page%5Bsize%5D=100",
			"last": "http://example.com/api/v1/schools?page%5Bnumber%5D=1&page%5Bsize%5D=100"
		}
	}`, rec.Body.String())
}

func TestListCollectionPagination(t *testing.T) {
	env := newTestEnv(t)
	headers := env.bearer(t, "albi@example.edu")
	base := "http://example.com/api/v1/schools?"

	tests := []struct {
		name  string
		query string
		ids   []string
		links jsonapi.Links
	}{
		{
			name:  "first page",
			query: "page[number]=1&page[size]=2",
			ids:   []string{"1", "2"},
			links: jsonapi.Links{
				First: base + "page%5Bnumber%5D=1&page%5Bsize%5D=2",
				Next:  base + "page%5Bnumber%5D=2&page%5Bsize%5D=2",
				Last:  base + "page%5Bnumber%5D=2&page%5Bsize%5D=2",
			},
		},
		{
			name:  "encoded brackets",
			query: "page%5Bnumber%5D=2&page%5Bsize%5D=2",
			ids:   []string{"3"},
			links: jsonapi.Links{
				First: base + "page%5Bnumber%5D=1&page%5Bsize%5D=2",
				Prev:  base + "page%5Bnumber%5D=1&page%5Bsize%5D=2",
				Last:  base + "page%5Bnumber%5D=2&page%5Bsize%5D=2",
			},
		},
		{
			name:  "page past the end clamps to last",
			query: "page[number]=9&page[size]=2",
			ids:   []string{"3"},
			links: jsonapi.Links{
				First: base + "page%5Bnumber%5D=1&page%5Bsize%5D=2",
				Prev:  base + "page%5Bnumber%5D=1&page%5Bsize%5D=2",
				Last:  base + "page%5Bnumber%5D=2&page%5Bsize%5D=2",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/v1/schools?"+tt.query, nil, headers)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			body := decode(t, rec)
			ids := []string{}
			for _, item := range body["data"].([]interface{}) {
				ids = append(ids, item.(map[string]interface{})["id"].(string))
			}
			assert.Equal(t, tt.ids, ids)

			links := body["links"].(map[string]interface{})
			assert.Equal(t, tt.links.First, links["first"])
			assert.Equal(t, tt.links.Last, links["last"])
			if tt.links.Next == "" {
				assert.NotContains(t, links, "next")
			} else {
				assert.Equal(t, tt.links.Next, links["next"])
			}
			if tt.links.Prev == "" {
				assert.NotContains(t, links, "prev")
			} else {
				assert.Equal(t, tt.links.Prev, links["prev"])
			}
		})
	}
}

func TestListEmptyCollection(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/units", "/api/v1/readings"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(http.MethodGet, path, nil, env.bearer(t, "albi@example.edu"))
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, []interface{}{}, body["data"])
			links := body["links"].(map[string]interface{})
			assert.Contains(t, links["last"], "page%5Bnumber%5D=1")
		})
	}
}

func TestListCollectionInvalidPage(t *testing.T) {
	env := newTestEnv(t)
	headers := env.bearer(t, "albi@example.edu")

	tests := []struct {
		name   string
		query  string
		detail string
	}{
		{"size too large", "page[size]=1001", "query.page[size]: Input should be less than or equal to 1000"},
		{"size zero", "page[size]=0", "query.page[size]: Input should be greater than or equal to 1"},
		{"number zero", "page[number]=0", "query.page[number]: Input should be greater than or equal to 1"},
		{"number not an integer", "page[number]=two", "query.page[number]: Input should be a valid integer, unable to parse string as an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/v1/schools?"+tt.query, nil, headers)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Equal(t, jsonapi.MediaType, rec.Header().Get("Content-Type"))

			errs := decode(t, rec)["errors"].([]interface{})
			require.Len(t, errs, 1)
			first := errs[0].(map[string]interface{})
			assert.Equal(t, "422", first["status"])
			assert.Equal(t, "Validation Error", first["title"])
			assert.Equal(t, tt.detail, first["detail"])
		})
	}
}

func TestGetCollectionItem(t *testing.T) {
	env := newTestEnv(t)
	headers := env.bearer(t, "albi@example.edu")

	for _, id := range []string{"1", "3"} {
		t.Run(id, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/v1/schools/"+id, nil, headers)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, jsonapi.MediaType, rec.Header().Get("Content-Type"))
			data := decode(t, rec)["data"].(map[string]interface{})
			assert.Equal(t, id, data["id"])
			assert.Equal(t, "schools", data["type"])
		})
	}
}

func TestGetCollectionItemNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/schools/999", nil, env.bearer(t, "albi@example.edu"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, jsonapi.MediaType, rec.Header().Get("Content-Type"))
	assert.JSONEq(t,
		`{"errors":[{"status":"404","title":"Not Found","detail":"Item with ID 999 not found in schools"}]}`,
		rec.Body.String())
}

func TestCatalogRequiresBearer(t *testing.T) {
	env := newTestEnv(t)
	stranger := env.bearer(t, "nobody@example.edu")

	tests := []struct {
		name    string
		headers map[string]string
		detail  string
	}{
		{"no header", nil, "Missing authorization header"},
		{"api key is not enough", apiKey(), "Missing authorization header"},
		{"malformed token", map[string]string{"Authorization": "Bearer abc.def"}, "Could not validate credentials"},
		{"unknown subject", stranger, "Could not validate credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/v1/teaching-sessions", nil, tt.headers)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
			errs := decode(t, rec)["errors"].([]interface{})
			first := errs[0].(map[string]interface{})
			assert.Equal(t, "401", first["status"])
			assert.Equal(t, tt.detail, first["detail"])
		})
	}
}

func TestCatalogIntegrationUserToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/integration-users/60", nil, env.bearer(t, "ria@example.edu"))

	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "integration-users", data["type"])
}

func TestUsersCollectionIsNotListed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/api/v1/users", nil, env.bearer(t, "albi@example.edu"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errs := decode(t, rec)["errors"].([]interface{})
	assert.Equal(t, "Not Found", errs[0].(map[string]interface{})["title"])
}

func TestRequestURLIgnoresUnknownForwardedProto(t *testing.T) {
	env := newTestEnv(t)

	for _, proto := range []string{"javascript", "ftp", "https://evil.example/"} {
		t.Run(proto, func(t *testing.T) {
			headers := env.bearer(t, "albi@example.edu")
			headers["X-Forwarded-Proto"] = proto

			rec := env.do(http.MethodGet, "/api/v1/schools?page[size]=1", nil, headers)

			require.Equal(t, http.StatusOK, rec.Code)
			links := decode(t, rec)["links"].(map[string]interface{})
			assert.Equal(t, "http://example.com/api/v1/schools?page%5Bnumber%5D=2&page%5Bsize%5D=1", links["next"])
		})
	}
}

func TestRequestURLHonoursForwardedProto(t *testing.T) {
	env := newTestEnv(t)
	headers := env.bearer(t, "albi@example.edu")
	headers["X-Forwarded-Proto"] = "https"

	rec := env.do(http.MethodGet, "/api/v1/schools?page[size]=1", nil, headers)

	require.Equal(t, http.StatusOK, rec.Code)
	links := decode(t, rec)["links"].(map[string]interface{})
	assert.Equal(t, "https://example.com/api/v1/schools?page%5Bnumber%5D=2&page%5Bsize%5D=1", links["next"])
}
