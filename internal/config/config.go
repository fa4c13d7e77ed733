// Package config loads the demo CLI's environment-driven settings: the
// peer address to dial or listen on, and the provider selectors handed
// to a session.Manager. The core engine itself takes no environment
// input (spec §6) — this package exists only for cmd/kyberium-demo.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/jaydenbeard/kyberium/internal/kyberium"
)

// loadEnvFiles loads .env, then .env.{KYBERIUM_ENV}, then .env.local,
// each optional.
func loadEnvFiles() {
	_ = godotenv.Load()
	if env := os.Getenv("KYBERIUM_ENV"); env != "" {
		_ = godotenv.Load(".env." + env)
	}
	_ = godotenv.Load(".env.local")
}

// Config holds the demo CLI's runtime settings.
type Config struct {
	ListenAddr  string
	PeerAddr    string
	MetricsAddr string
	Session     kyberium.Config
}

// Load reads environment variables (after loading any .env files) into
// a Config, applying the same defaults as kyberium.DefaultConfig for
// anything not overridden.
func Load() *Config {
	loadEnvFiles()

	def := kyberium.DefaultConfig()
	sessionCfg := kyberium.Config{
		KDFType:          kyberium.KDFType(getEnv("KYBERIUM_KDF", string(def.KDFType))),
		SymmetricType:    kyberium.SymmetricType(getEnv("KYBERIUM_AEAD", string(def.SymmetricType))),
		UseTripleRatchet: getEnvBool("KYBERIUM_TRIPLE_RATCHET", def.UseTripleRatchet),
		SymmetricKeySize: getEnvInt("KYBERIUM_AEAD_KEY_SIZE", def.SymmetricKeySize),
	}
	if err := sessionCfg.Validate(); err != nil {
		log.Fatalf("FATAL: invalid session configuration: %v", err)
	}

	return &Config{
		ListenAddr:  getEnv("KYBERIUM_LISTEN_ADDR", ":9443"),
		PeerAddr:    getEnv("KYBERIUM_PEER_ADDR", ""),
		MetricsAddr: getEnv("KYBERIUM_METRICS_ADDR", ":2112"),
		Session:     sessionCfg,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n := 0
	for _, c := range value {
		if c < '0' || c > '9' {
			return defaultValue
		}
		n = n*10 + int(c-'0')
	}
	return n
}
