package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading a
// local .env file first when present. Unset variables keep the current
// value; unparseable numeric values are ignored.
func parseEnv(cfg *Config) {
	_ = godotenv.Load()

	setString(&cfg.EndpointAddrHTTP, "ADDRESS")
	setString(&cfg.DatabaseDSN, "DATABASE_DSN")

	setString(&cfg.FakturowniaBaseURL, "FAKTUROWNIA_BASE_URL")
	setString(&cfg.FakturowniaAPIToken, "FAKTUROWNIA_API_TOKEN")
	setInt(&cfg.FakturowniaRateLimitRPS, "FAKTUROWNIA_RATE_LIMIT_RPS")
	setDuration(&cfg.SaaSWriteDelay, "SAAS_WRITE_DELAY")

	setString(&cfg.SecretKey, "SECRET_KEY")
	setDuration(&cfg.AccessTokenValidityDuration, "ACCESS_TOKEN_VALIDITY")
	setString(&cfg.OperatorLogin, "OPERATOR_LOGIN")
	setString(&cfg.OperatorSalt, "OPERATOR_SALT")
	setString(&cfg.OperatorVerifier, "OPERATOR_VERIFIER")

	setString(&cfg.EmailGatewayURL, "EMAIL_GATEWAY_URL")
	setString(&cfg.SMSGatewayURL, "SMS_GATEWAY_URL")
	setString(&cfg.WhatsAppGatewayURL, "WHATSAPP_GATEWAY_URL")

	setString(&cfg.S3RootUser, "S3_ROOT_USER")
	setString(&cfg.S3RootPassword, "S3_ROOT_PASSWORD")
	setString(&cfg.S3Bucket, "S3_BUCKET")
	setString(&cfg.S3Region, "S3_REGION")
	setString(&cfg.S3BaseEndpoint, "S3_BASE_ENDPOINT")

	setInt(&cfg.ReminderIntervalDays, "REMINDER_INTERVAL_DAYS")
	setInt(&cfg.LetterCountThreshold, "LETTER_COUNT_THRESHOLD")
	setFloat(&cfg.LetterDebtThreshold, "LETTER_DEBT_THRESHOLD")
	setInt(&cfg.CollectionsMinDays, "COLLECTIONS_MIN_DAYS")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
