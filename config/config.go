// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strings"
)

type Config struct {
	Port   string
	DBPath string
	Env    string

	// OpeningDate seeds the calendar on first run, YYYY-MM-DD.
	// Empty means today.
	OpeningDate string

	// AMQPURL enables event and report publishing when set.
	AMQPURL     string
	EventQueue  string
	ReportQueue string

	// JWTSecret enables bearer-token auth when set.
	JWTSecret string

	// ReportRecipients receive the closure summary by default.
	ReportRecipients []string
}

func Load() *Config {
	cfg := &Config{
		Port:        getenv("SERVER_PORT", "8080"),
		DBPath:      getenv("DB_PATH", "nightaudit.db"),
		Env:         getenv("ENVIRONMENT", "development"),
		OpeningDate: os.Getenv("OPENING_DATE"),
		AMQPURL:     os.Getenv("AMQP_URL"),
		EventQueue:  getenv("EVENT_QUEUE", "audit.events"),
		ReportQueue: getenv("REPORT_QUEUE", "audit.reports"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
	}
	if list := os.Getenv("REPORT_RECIPIENTS"); list != "" {
		for _, addr := range strings.Split(list, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				cfg.ReportRecipients = append(cfg.ReportRecipients, addr)
			}
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
