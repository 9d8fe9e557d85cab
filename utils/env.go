package utils

import "os"

var (
	HTTP_PORT = GetEnvOrDefault("HTTP_PORT", "8080")

	// Path to the optional koanf config file, see the config package
	CONFIG_FILE = GetEnvOrDefault("CONFIG_FILE", "bqconnector.yaml")

	AWS_ACCESS_KEY_ID     = os.Getenv("AWS_ACCESS_KEY_ID")
	AWS_SECRET_ACCESS_KEY = os.Getenv("AWS_SECRET_ACCESS_KEY")
	AWS_DEFAULT_REGION    = GetEnvOrDefault("AWS_DEFAULT_REGION", "us-east-1")

	// Exports are disabled when the bucket is empty
	S3_BUCKET_NAME   = os.Getenv("S3_BUCKET_NAME")
	S3_ENDPOINT      = os.Getenv("S3_ENDPOINT")
	S3_EXPORT_PREFIX = GetEnvOrDefault("S3_EXPORT_PREFIX", "exports")
)
