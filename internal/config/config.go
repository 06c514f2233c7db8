package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Transport selection values.
const (
	TransportNetconf = "netconf"
	TransportREST    = "rest"
)

// Config holds all the environment-based configurations. Credentials
// may also arrive as command-line flags, which take precedence.
type Config struct {
	Transport    string
	NetconfPort  int
	RESTPort     int
	Username     string
	Password     string
	KeyFile      string
	QueryTimeout time.Duration
	LogFilePath  string
}

// Load reads the configuration from environment variables.
func Load() Config {
	return Config{
		Transport:    getEnv("SRX_TRANSPORT", TransportNetconf),
		NetconfPort:  getEnvInt("SRX_NETCONF_PORT", 830),
		RESTPort:     getEnvInt("SRX_REST_PORT", 3000),
		Username:     getEnv("SRX_USERNAME", ""),
		Password:     getEnv("SRX_PASSWORD", ""),
		KeyFile:      getEnv("SRX_SSH_KEYFILE", defaultKeyFile()),
		QueryTimeout: getEnvDuration("SRX_QUERY_TIMEOUT", 30*time.Second),
		LogFilePath:  getEnv("LOG_FILE_PATH", ""),
	}
}

func defaultKeyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "id_rsa")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
