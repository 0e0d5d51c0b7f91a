package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port            string
	DBDSN           string
	LogFile         string
	PlatformStoreID string
	CheckoutTimeout time.Duration
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "vendora.db" // sqlite file in project root
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./vendora.log"
	}
	// Designated platform store id; an explicit config value, never resolved
	// by store-name lookup.
	storeID := os.Getenv("PLATFORM_STORE_ID")
	if storeID == "" {
		storeID = "store-vendora"
	}
	timeout := 10 * time.Second
	if s := os.Getenv("CHECKOUT_TIMEOUT_SECONDS"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}

	cfg := Config{Port: port, DBDSN: dsn, LogFile: logFile, PlatformStoreID: storeID, CheckoutTimeout: timeout}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s PLATFORM_STORE_ID=%s CHECKOUT_TIMEOUT=%s",
		cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.PlatformStoreID, cfg.CheckoutTimeout)
	return cfg
}
