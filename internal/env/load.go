package env

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadEnv reads a .env file when present. Missing files are normal outside development.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set directly.")
	}
}

func MustGetEnv(key string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		log.Fatalf("Environment variable %s not set", key)
	}
	return val
}

// Get returns the value of key or def when the variable is unset or empty.
func Get(key, def string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return def
}

// Int parses key as an integer, falling back to def on absence or parse errors.
func Int(key string, def int) int {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Invalid integer in %s=%q, using %d", key, val, def)
		return def
	}
	return n
}

// Duration parses key with time.ParseDuration, falling back to def.
func Duration(key string, def time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		log.Printf("Invalid duration in %s=%q, using %s", key, val, def)
		return def
	}
	return d
}

func Bool(key string, def bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}
