package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	GeocoderBaseURL string `env:"GEOCODER_BASE_URL,default=https://api.zippopotam.us"`

	PaymentAPIURL string `env:"PAYMENT_API_URL,required=true"`
	PaymentAPIKey string `env:"PAYMENT_API_KEY,required=true"`

	EmailAPIURL string `env:"EMAIL_API_URL,required=true"`
	EmailAPIKey string `env:"EMAIL_API_KEY,required=true"`
	EmailFrom   string `env:"EMAIL_FROM,default=leads@mobilephlebotomy.example"`

	SMSAPIURL             string `env:"SMS_API_URL,required=true"`
	SMSAccountSID         string `env:"SMS_ACCOUNT_SID,required=true"`
	SMSAuthToken          string `env:"SMS_AUTH_TOKEN,required=true"`
	SMSMessagingServiceID string `env:"SMS_MESSAGING_SERVICE_ID,required=true"`

	AdminAlertEmail string `env:"ADMIN_ALERT_EMAIL,required=true"`

	RankerStrategy    string `env:"RANKER_STRATEGY,default=random"`
	RateLimitPerSec   int    `env:"RATE_LIMIT_PER_SEC,default=50"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=8"`
	APIPort           int    `env:"API_PORT,default=8080"`
	LogLevel          string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
