package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type HTTPServer struct {
	Host string
	Port string
	// "RW" or "RO"
	Mode string
}

type RedisCache struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// Session is the durable session store.
type Session struct {
	// "redis" or "memory"
	Store string
	TTL   time.Duration
	// Budget for best-effort writes triggered by the live gateway.
	SyncTimeout time.Duration
}

// Archive keeps a Postgres history of matches.
type Archive struct {
	Enabled bool
}

type Party struct {
	GracePeriod     time.Duration
	JanitorInterval time.Duration
}

type Gateway struct {
	EventsPerSecond float64
	EventBurst      int
	SendBuffer      int
	MaxMessageSize  int64
}

type Config struct {
	HTTP     HTTPServer
	Redis    RedisCache
	Postgres Postgres
	Session  Session
	Archive  Archive
	Party    Party
	Gateway  Gateway
}

const logtag = "[config]"

func Load() *Config {
	configPath := flag.String("config", "", "path env file")
	flag.Parse()

	if *configPath != "" {
		if err := godotenv.Load(*configPath); err != nil {
			log.Fatalf("%s err loading env from file : %v", logtag, err)
		}
		log.Printf("%s using env from : %s", logtag, *configPath)
	} else {
		log.Printf("%s using env from .env", logtag)
		_ = godotenv.Load()
	}

	cfg := FromEnv()

	log.Printf("%s backend config : %+v\n", logtag, cfg)
	return cfg
}

// FromEnv builds the config from the current environment only.
func FromEnv() *Config {
	return &Config{
		HTTP:     *newHTTP(),
		Redis:    *newRedis(),
		Postgres: *newPostgres(),
		Session:  *newSession(),
		Archive:  *newArchive(),
		Party:    *newParty(),
		Gateway:  *newGateway(),
	}
}

func newHTTP() *HTTPServer {
	return &HTTPServer{
		Port: getenv("HTTP_PORT", "8080"),
		Host: getenv("HTTP_HOST", "localhost"),
		Mode: getenv("HTTP_MODE", "RW"),
	}
}

func newRedis() *RedisCache {
	return &RedisCache{
		Port:     getenv("REDIS_PORT", "6379"),
		Host:     getenv("REDIS_HOST", "redis"),
		Password: getenv("REDIS_PASSWORD", "shared"),
		DB:       getenvInt("REDIS_DB", 0),
	}
}

func newPostgres() *Postgres {
	return &Postgres{
		Host:     getenv("DB_HOST", "localhost"),
		Port:     getenv("DB_PORT", "5432"),
		User:     getenv("DB_USER", "admin"),
		Password: getenv("DB_PASSWORD", "shared"),
		DBName:   getenv("DB_NAME", "test"),
		SSLMode:  getenv("DB_SSLMODE", "disable"),
	}
}

func newSession() *Session {
	return &Session{
		Store:       getenv("SESSION_STORE", "redis"),
		TTL:         getenvPositiveDuration("SESSION_TTL", 24*time.Hour),
		SyncTimeout: getenvPositiveDuration("SESSION_SYNC_TIMEOUT", 3*time.Second),
	}
}

func newArchive() *Archive {
	return &Archive{
		Enabled: getenvBool("ARCHIVE_ENABLED", false),
	}
}

func newParty() *Party {
	return &Party{
		GracePeriod:     getenvDuration("ROOM_GRACE", 5*time.Minute),
		JanitorInterval: getenvPositiveDuration("JANITOR_INTERVAL", time.Minute),
	}
}

func newGateway() *Gateway {
	return &Gateway{
		EventsPerSecond: getenvFloat("WS_EVENTS_PER_SECOND", 20),
		EventBurst:      getenvInt("WS_EVENT_BURST", 40),
		SendBuffer:      getenvInt("WS_SEND_BUFFER", 256),
		MaxMessageSize:  int64(getenvInt("WS_MAX_MESSAGE_SIZE", 64*1024)),
	}
}

func getenv(key, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		fmt.Printf("%s %s undefined. Using default value %s\n", logtag, key, defaultValue)
		return defaultValue
	}
	fmt.Printf("%s %s = %s\n", logtag, key, val)
	return val
}

func getenvInt(key string, defaultValue int) int {
	raw := getenv(key, strconv.Itoa(defaultValue))
	val, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Printf("%s %s = %q is not an int. Using default value %d\n", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return val
}

func getenvFloat(key string, defaultValue float64) float64 {
	raw := getenv(key, strconv.FormatFloat(defaultValue, 'f', -1, 64))
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		fmt.Printf("%s %s = %q is not a number. Using default value %v\n", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return val
}

func getenvBool(key string, defaultValue bool) bool {
	raw := getenv(key, strconv.FormatBool(defaultValue))
	val, err := strconv.ParseBool(raw)
	if err != nil {
		fmt.Printf("%s %s = %q is not a bool. Using default value %t\n", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return val
}

func getenvDuration(key string, defaultValue time.Duration) time.Duration {
	raw := getenv(key, defaultValue.String())
	val, err := time.ParseDuration(raw)
	if err != nil {
		fmt.Printf("%s %s = %q is not a duration. Using default value %s\n", logtag, key, raw, defaultValue)
		return defaultValue
	}
	return val
}

// getenvPositiveDuration is getenvDuration for intervals and timeouts that
// cannot be zero or negative.
func getenvPositiveDuration(key string, defaultValue time.Duration) time.Duration {
	val := getenvDuration(key, defaultValue)
	if val <= 0 {
		fmt.Printf("%s %s = %s must be positive. Using default value %s\n", logtag, key, val, defaultValue)
		return defaultValue
	}
	return val
}
