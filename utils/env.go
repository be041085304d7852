package utils

import "os"

var (
	HTTP_PORT = GetEnvOrDefault("HTTP_PORT", "8080")

	// DB_BACKEND picks the statement executor: "data_api" (RDS Data API) or "postgres" (local pgx pool)
	DB_BACKEND = GetEnvOrDefault("DB_BACKEND", "data_api")

	DATABASE_ARN        = os.Getenv("DATABASE_ARN")
	DATABASE_SECRET_ARN = os.Getenv("DATABASE_SECRET_ARN")
	DATABASE_NAME       = os.Getenv("DATABASE_NAME")
	DATABASE_SCHEMA     = os.Getenv("DATABASE_SCHEMA")

	CRDB_DSN       = os.Getenv("CRDB_DSN")
	RUN_MIGRATIONS = os.Getenv("RUN_MIGRATIONS") == "1"

	MAPS_API_KEY_SECRET_ARN = os.Getenv("MAPS_API_KEY_SECRET_ARN")
	MAPS_SECRET_REGION      = GetEnvOrDefault("MAPS_SECRET_REGION", "us-east-2")

	AWS_ACCESS_KEY_ID     = os.Getenv("AWS_ACCESS_KEY_ID")
	AWS_SECRET_ACCESS_KEY = os.Getenv("AWS_SECRET_ACCESS_KEY")
	AWS_DEFAULT_REGION    = GetEnvOrDefault("AWS_DEFAULT_REGION", "us-east-1")

	S3_BUCKET_NAME = os.Getenv("S3_BUCKET_NAME")
	S3_ENDPOINT    = os.Getenv("S3_ENDPOINT")
)
