package config

import (
	"encoding/json"
	"os"
	"time"

	"windykator/internal/flagx"
	"windykator/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files; after unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP string `json:"endpoint_addr_http"`
	DatabaseDSN      string `json:"database_dsn"`

	FakturowniaBaseURL      string         `json:"fakturownia_base_url"`
	FakturowniaAPIToken     string         `json:"fakturownia_api_token"`
	FakturowniaRateLimitRPS int            `json:"fakturownia_rate_limit_rps"`
	SaaSWriteDelay          timex.Duration `json:"saas_write_delay"`

	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	OperatorLogin               string         `json:"operator_login"`
	OperatorSalt                string         `json:"operator_salt"`
	OperatorVerifier            string         `json:"operator_verifier"`

	EmailGatewayURL    string `json:"email_gateway_url"`
	SMSGatewayURL      string `json:"sms_gateway_url"`
	WhatsAppGatewayURL string `json:"whatsapp_gateway_url"`

	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`

	ReminderIntervalDays int     `json:"reminder_interval_days"`
	LetterCountThreshold int     `json:"letter_count_threshold"`
	LetterDebtThreshold  float64 `json:"letter_debt_threshold"`
	CollectionsMinDays   int     `json:"collections_min_days"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config flags; when
// neither is set, no JSON file is loaded. An unreadable or invalid file
// panics: a half-applied config is worse than no server.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DatabaseDSN = c.DatabaseDSN
	config.FakturowniaBaseURL = c.FakturowniaBaseURL
	config.FakturowniaAPIToken = c.FakturowniaAPIToken
	config.FakturowniaRateLimitRPS = c.FakturowniaRateLimitRPS
	config.SaaSWriteDelay = time.Duration(c.SaaSWriteDelay.Duration)
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.OperatorLogin = c.OperatorLogin
	config.OperatorSalt = c.OperatorSalt
	config.OperatorVerifier = c.OperatorVerifier
	config.EmailGatewayURL = c.EmailGatewayURL
	config.SMSGatewayURL = c.SMSGatewayURL
	config.WhatsAppGatewayURL = c.WhatsAppGatewayURL
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.ReminderIntervalDays = c.ReminderIntervalDays
	config.LetterCountThreshold = c.LetterCountThreshold
	config.LetterDebtThreshold = c.LetterDebtThreshold
	config.CollectionsMinDays = c.CollectionsMinDays
}
