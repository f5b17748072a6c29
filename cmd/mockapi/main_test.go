package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/platinummonkey/mockapi/pkg/config"
	"github.com/platinummonkey/mockapi/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = "../../pkg/catalog/testdata/ereserve.json"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Data.CSVFilePath = filepath.Join(t.TempDir(), "data", "resources.csv")
	cfg.Data.JSONFilePath = fixture
	cfg.Auth.SecretKey = "0123456789abcdef0123456789abcdef"
	cfg.Auth.APIKeys = []string{"key"}
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestOpenResourcesCreatesFile(t *testing.T) {
	cfg := testConfig(t)

	repo, err := openResources(cfg, quietLogger(), nil)
	require.NoError(t, err)

	_, err = os.Stat(repo.Path())
	require.NoError(t, err)

	list, err := repo.GetAll(0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, list.Count)
}

func TestOpenCatalogRecordsMetrics(t *testing.T) {
	cfg := testConfig(t)
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	store, err := openCatalog(context.Background(), cfg, quietLogger(), metrics)
	require.NoError(t, err)
	require.NotNil(t, store.Current())

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogLoadsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.CatalogRecords.WithLabelValues("schools")))
}

func TestOpenCatalogFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.JSONFilePath = filepath.Join(t.TempDir(), "missing.json")
	metrics := observability.NewMetrics(prometheus.NewRegistry())

	_, err := openCatalog(context.Background(), cfg, quietLogger(), metrics)
	require.Error(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.CatalogLoadsTotal.WithLabelValues("failure")))
}

func TestNewTokenManager(t *testing.T) {
	cfg := testConfig(t)

	tokens, err := newTokenManager(cfg)
	require.NoError(t, err)
	token, _, err := tokens.CreateToken("someone@example.edu")
	require.NoError(t, err)
	subject, err := tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "someone@example.edu", subject)

	cfg.Auth.SecretKey = "short"
	_, err = newTokenManager(cfg)
	assert.Error(t, err)

	cfg.Auth.Algorithm = "RS256"
	_, err = newTokenManager(cfg)
	assert.Error(t, err)
}
