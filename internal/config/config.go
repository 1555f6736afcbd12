package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr        string
	DatabaseURL string
	JWTSecret   string
	RedisAddr   string

	// delivery pricing used by checkout
	DeliveryFee           float64
	FreeShippingThreshold float64

	// downstream notification endpoints; empty means the channel is off
	SMSWebhookURL     string
	EmailWebhookURL   string
	InvoiceServiceURL string

	Momo MomoConfig
}

// MomoConfig carries the MTN MoMo collections credentials. SubscriptionKey is
// the Ocp-Apim product key; APIUser/APIKey are the provisioned basic-auth pair
// used for the token exchange.
type MomoConfig struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	CallbackURL     string
}

func Load() Config {
	return Config{
		Addr:                  getenv("ISOKO_ADDR", ":8080"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		RedisAddr:             getenv("REDIS_ADDR", "localhost:6379"),
		DeliveryFee:           getenvFloat("DELIVERY_FEE", 1500),
		FreeShippingThreshold: getenvFloat("FREE_SHIPPING_THRESHOLD", 50000),
		SMSWebhookURL:         os.Getenv("NOTIFY_SMS_URL"),
		EmailWebhookURL:       os.Getenv("NOTIFY_EMAIL_URL"),
		InvoiceServiceURL:     os.Getenv("NOTIFY_INVOICE_URL"),
		Momo: MomoConfig{
			BaseURL:         getenv("MOMO_BASE_URL", "https://sandbox.momodeveloper.mtn.com"),
			SubscriptionKey: os.Getenv("MOMO_SUBSCRIPTION_KEY"),
			APIUser:         os.Getenv("MOMO_API_USER"),
			APIKey:          os.Getenv("MOMO_API_KEY"),
			TargetEnv:       getenv("MOMO_TARGET_ENV", "sandbox"),
			CallbackURL:     os.Getenv("MOMO_CALLBACK_URL"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
