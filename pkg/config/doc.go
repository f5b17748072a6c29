// Package config provides application configuration management from an
// optional YAML file and environment variables.
//
// # Overview
//
// Defaults are applied first, then the YAML file passed with --config, then
// every MOCKAPI_* environment variable that is set. The result is validated
// before it is returned.
//
// # Configuration Structure
//
// Server settings:
//
//	MOCKAPI_HOST="0.0.0.0"
//	MOCKAPI_PORT="8000"
//	MOCKAPI_HEALTH_PORT="9090"
//	MOCKAPI_BASE_PATH="/api/v1"
//	MOCKAPI_JSONAPI_PATHS="/api/v1/users,/api/v1/schools"
//	MOCKAPI_CORS_ALLOWED_ORIGINS="*"
//
// Data settings:
//
//	MOCKAPI_CSV_FILE_PATH="data/resources.csv"
//	MOCKAPI_JSON_FILE_PATH="data/ereserve.json"  # or s3://bucket/key
//	MOCKAPI_WATCH_CATALOG="false"
//	MOCKAPI_CATALOG_RELOAD_SCHEDULE="@every 5m"  # cron spec, empty disables
//	MOCKAPI_S3_ENDPOINT="http://localhost:9000"
//
// Auth settings:
//
//	MOCKAPI_SECRET_KEY="..."  # at least 32 bytes for HS256
//	MOCKAPI_JWT_ALGORITHM="HS256"
//	MOCKAPI_ACCESS_TOKEN_TTL="60m"
//	MOCKAPI_API_KEYS="key-one,key-two"
//	MOCKAPI_API_KEY_HEADER="X-API-Key"
//	MOCKAPI_TOKEN_CACHE_SIZE="1024"  # verified tokens kept in memory, 0 disables
//
// Observability settings:
//
//	MOCKAPI_LOG_LEVEL="info"  # debug, info, warn, error
//	MOCKAPI_LOG_FORMAT="json" # json, text
//	MOCKAPI_METRICS_ENABLED="true"
//	MOCKAPI_OTEL_ENDPOINT="localhost:4317"  # OTLP/gRPC traces, empty disables
//	MOCKAPI_OTEL_INSECURE="false"
//	MOCKAPI_RATE_LIMIT_RPM="0" # 0 disables rate limiting
//	MOCKAPI_RATE_LIMIT_BURST="0"
//	MOCKAPI_RATE_LIMIT_REDIS_URL="redis://localhost:6379/0"  # shared limits
//
// # Usage Example
//
//	cfg, err := config.Load("mockapi.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Server: %s:%s\n", cfg.Server.Host, cfg.Server.Port)
package config
