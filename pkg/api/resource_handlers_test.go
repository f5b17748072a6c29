package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/platinummonkey/mockapi/pkg/resources"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedResources(t *testing.T, env *testEnv, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := env.repo.Create(resources.Resource{
			ID:           fmt.Sprintf("r%d", i),
			Title:        fmt.Sprintf("Resource %d", i),
			AccessCount:  i,
			StudentCount: i * 10,
		})
		require.NoError(t, err)
	}
}

func TestListResourcesEmpty(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/resources", "/api/v1/resources/"} {
		t.Run(path, func(t *testing.T) {
			rec := env.do(http.MethodGet, path, nil, apiKey())

			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"resources": [], "count": 0}`, rec.Body.String())
		})
	}
}

func TestListResourcesWindow(t *testing.T) {
	env := newTestEnv(t)
	seedResources(t, env, 5)

	tests := []struct {
		name  string
		query string
		ids   []string
	}{
		{"defaults", "", []string{"r0", "r1", "r2", "r3", "r4"}},
		{"skip and limit", "?skip=1&limit=2", []string{"r1", "r2"}},
		{"limit past end", "?skip=3&limit=10", []string{"r3", "r4"}},
		{"skip past end", "?skip=10", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/v1/resources/"+tt.query, nil, apiKey())
			require.Equal(t, http.StatusOK, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, float64(5), body["count"])
			ids := []string{}
			for _, item := range body["resources"].([]interface{}) {
				ids = append(ids, item.(map[string]interface{})["id"].(string))
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestListResourcesInvalidQuery(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		query   string
		errType string
	}{
		{"negative skip", "?skip=-1", "greater_than_equal"},
		{"zero limit", "?limit=0", "greater_than_equal"},
		{"limit too large", "?limit=1001", "less_than_equal"},
		{"non-integer", "?skip=abc", "int_parsing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, "/api/v1/resources/"+tt.query, nil, apiKey())
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, "Validation error", body["message"])
			detail := body["detail"].([]interface{})
			require.Len(t, detail, 1)
			assert.Equal(t, tt.errType, detail[0].(map[string]interface{})["type"])
			assert.Equal(t, "query", detail[0].(map[string]interface{})["loc"].([]interface{})[0])
		})
	}
}

func TestCreateThenGetResource(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/v1/resources/", map[string]interface{}{
		"title":         "X",
		"access_count":  1,
		"student_count": 1,
	}, apiKey())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode(t, rec)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Nil(t, created["description"])

	rec = env.do(http.MethodGet, "/api/v1/resources/"+id, nil, apiKey())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decode(t, rec))
}

func TestCreateResourceWithID(t *testing.T) {
	env := newTestEnv(t)
	body := map[string]interface{}{
		"id":            "book-1",
		"title":         "Reader",
		"description":   "Week one",
		"access_count":  3,
		"student_count": 40,
	}

	rec := env.do(http.MethodPost, "/api/v1/resources", body, apiKey())
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id":"book-1","title":"Reader","description":"Week one","access_count":3,"student_count":40}`, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/v1/resources", body, apiKey())
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Resource with ID book-1 already exists", decode(t, rec)["detail"])
}

func TestCreateResourceValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{"missing required fields", `{}`, []string{"title", "access_count", "student_count"}},
		{"non-integer count", `{"title":"X","access_count":"many","student_count":1}`, []string{"access_count"}},
		{"fractional count", `{"title":"X","access_count":1.5,"student_count":1}`, []string{"access_count"}},
		{"malformed json", `{"title":`, []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/v1/resources/", tt.body, apiKey())
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			body := decode(t, rec)
			assert.Equal(t, "Validation error", body["message"])
			detail := body["detail"].([]interface{})
			require.Len(t, detail, len(tt.fields))
			for i, field := range tt.fields {
				loc := detail[i].(map[string]interface{})["loc"].([]interface{})
				if field == "" {
					assert.Equal(t, []interface{}{"body"}, loc)
					continue
				}
				assert.Equal(t, []interface{}{"body", field}, loc)
			}
		})
	}
}

func TestUpdateResource(t *testing.T) {
	env := newTestEnv(t)
	seedResources(t, env, 1)

	rec := env.do(http.MethodPut, "/api/v1/resources/r0", map[string]interface{}{
		"id":           "changed",
		"title":        nil,
		"access_count": 99,
	}, apiKey())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "r0", body["id"], "id never changes")
	assert.Equal(t, "Resource 0", body["title"], "null fields are left untouched")
	assert.Equal(t, float64(99), body["access_count"])
	assert.Equal(t, float64(0), body["student_count"])

	rec = env.do(http.MethodPut, "/api/v1/resources/missing", map[string]interface{}{"title": "x"}, apiKey())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Resource with ID missing not found", decode(t, rec)["detail"])
}

func TestDeleteResourceTwice(t *testing.T) {
	env := newTestEnv(t)
	seedResources(t, env, 2)

	rec := env.do(http.MethodDelete, "/api/v1/resources/r1", nil, apiKey())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Resource with ID r1 deleted successfully", decode(t, rec)["message"])

	rec = env.do(http.MethodDelete, "/api/v1/resources/r1", nil, apiKey())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/resources/", nil, apiKey())
	assert.Equal(t, float64(1), decode(t, rec)["count"])
}

func TestResourcesRequireAPIKey(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
	}{
		{"list without key", http.MethodGet, "/api/v1/resources/", nil},
		{"list with wrong key", http.MethodGet, "/api/v1/resources/", map[string]string{"X-API-Key": "nope"}},
		{"get without key", http.MethodGet, "/api/v1/resources/r0", nil},
		{"create without key", http.MethodPost, "/api/v1/resources/", nil},
		{"delete with wrong key", http.MethodDelete, "/api/v1/resources/r0", map[string]string{"X-API-Key": "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.method, tt.path, nil, tt.headers)

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.JSONEq(t, `{"detail": "Invalid or missing API key"}`, rec.Body.String())
		})
	}

	failures := env.metrics.AuthFailuresTotal.WithLabelValues("api_key", "missing_key")
	assert.Equal(t, float64(3), testutil.ToFloat64(failures))
}

func TestResourcesCustomKeyHeader(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.APIKeyHeader = "X-Mock-Key" })

	rec := env.do(http.MethodGet, "/api/v1/resources/", nil, apiKey())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/v1/resources/", nil, map[string]string{"X-Mock-Key": testAPIKey})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResourcesMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPatch, "/api/v1/resources/r0", nil, apiKey())

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", decode(t, rec)["detail"])
}

func TestResourceOperationsAreCounted(t *testing.T) {
	env := newTestEnv(t)
	seedResources(t, env, 1)

	env.do(http.MethodGet, "/api/v1/resources/r0", nil, apiKey())
	env.do(http.MethodGet, "/api/v1/resources/nope", nil, apiKey())

	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.ResourceOperationsTotal.WithLabelValues("get", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(env.metrics.ResourceOperationsTotal.WithLabelValues("get", "not_found")))
}

func TestResourceMutationsLogCaller(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	env := newTestEnv(t, func(o *Options) { o.Logger = logger })

	rec := env.do(http.MethodPost, "/api/v1/resources/", map[string]interface{}{
		"id": "m1", "title": "Logged", "access_count": 1, "student_count": 2,
	}, apiKey())
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = env.do(http.MethodDelete, "/api/v1/resources/m1", nil, apiKey())
	require.Equal(t, http.StatusOK, rec.Code)

	var actions []string
	for _, e := range hook.AllEntries() {
		if e.Message != "Resource changed" {
			continue
		}
		assert.Equal(t, logrus.InfoLevel, e.Level)
		assert.Equal(t, "m1", e.Data["resource_id"])
		assert.Equal(t, "api_key", e.Data["scheme"])
		assert.NotEmpty(t, e.Data["caller"])
		actions = append(actions, e.Data["action"].(string))
	}
	assert.Equal(t, []string{"create", "delete"}, actions)
}

func TestOversizedBodyIsRejected(t *testing.T) {
	env := newTestEnv(t, func(o *Options) { o.MaxBodyBytes = 32 })

	rec := env.do(http.MethodPost, "/api/v1/resources/", map[string]interface{}{
		"title": strings.Repeat("x", 64), "access_count": 1, "student_count": 1,
	}, apiKey())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "request body exceeds 32 bytes")
}
