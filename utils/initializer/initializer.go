package initializer

import (
	"github.com/alpacahq/gocaptable/utils/env"
)

// Initialize registers the engine's environment variables
// with their default values.
func Initialize() {
	// Engine
	env.RegisterDefault("BROKER_MODE", "DEV")
	env.RegisterDefault("LOG_LEVEL", "INFO")
	env.RegisterDefault("EMAILS_ENABLED", "FALSE")
	env.RegisterDefault("STANDBY_MODE", "FALSE")
	env.RegisterDefault("DEFAULT_SHARE_CLASS", "Series Preferred")
	env.RegisterDefault("ACCRUAL_DAY_COUNT", "365")

	// Conversion worker
	env.RegisterDefault("CONVERSION_WORKER_INTERVAL", "5m")
	env.RegisterDefault("CONVERSION_LOOKBACK", "72h")
	env.RegisterDefault("CONVERSION_ROUND_LIMIT", "100")
	env.RegisterDefault("CONVERSION_SECURITY_LIMIT", "500")
	env.RegisterDefault("CONVERSION_PARALLELISM", "4")
	env.RegisterDefault("CONVERSION_RETRIES", "3")

	// Backup worker
	env.RegisterDefault("BACKUP_PARALLELISM", "2")
	env.RegisterDefault("WORKERS_TIMEZONE", "America/Chicago")

	// Database
	env.RegisterDefault("DB_DIALECT", "postgres")
	env.RegisterDefault("PGDATABASE", "captable")
	env.RegisterDefault("PGHOST", "127.0.0.1")
	env.RegisterDefault("PGUSER", "postgres")

	// Mailgun
	env.RegisterDefault("MAILGUN_DOMAIN", "mg.example.com")
	env.RegisterDefault("MAIL_SENDER", "Cap Table <captable@example.com>")
	env.RegisterDefault("CONVERSION_NOTIFY_EMAIL", "captable-admin@example.com")
	env.RegisterDefault("FINANCE_EMAIL", "finance@example.com")

	// S3 report archive
	env.RegisterDefault("AWS_REGION", "us-east-1")
	env.RegisterDefault("AWS_S3_NAMESPACE", "reports")

	// Metrics
	env.RegisterDefault("STATSD_NAMESPACE", "captable.")
	env.RegisterDefault("METRICS_INTERVAL", "1m")
}
