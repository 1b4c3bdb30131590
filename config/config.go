package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment     string
	HTTPPort        string
	HTTPSPort       string
	Domains         []string
	CertCacheDir    string
	PythonBin       string
	AnalyzerScript  string
	UploadDir       string
	MaxUploadSize   int64
	UploadRetention time.Duration
	AllowedOrigins  []string
	DatabaseURL     string
}

var isTest bool

func init() {
	isTest = os.Getenv("GO_ENVIRONMENT") == "test"
	if !isTest {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Error loading .env file:", err)
		}
	}
}

func Load() Config {
	return Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		HTTPPort:        getEnv("HTTP_PORT", "8086"),
		HTTPSPort:       getEnv("HTTPS_PORT", "443"),
		Domains:         []string{getEnv("DOMAIN", "example.com")},
		CertCacheDir:    getEnv("CERT_CACHE_DIR", "/etc/letsencrypt/live/example.com"),
		PythonBin:       getEnv("PYTHON_BIN", "python3"),
		AnalyzerScript:  getEnv("ANALYZER_SCRIPT", filepath.Join("scripts", "document_analyzer.py")),
		UploadDir:       getEnv("UPLOAD_DIR", filepath.Join("storage", "uploads")),
		MaxUploadSize:   int64(getEnvAsInt("MAX_UPLOAD_SIZE", 10<<20)),
		UploadRetention: time.Duration(getEnvAsInt("UPLOAD_RETENTION_HOURS", 24)) * time.Hour,
		AllowedOrigins:  strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
