package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Chat     ChatConfig
	Ai       AIConfig
	Weather  WeatherConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type ChatConfig struct {
	// MaxSessionMessages is the per-session turn cap; a session at or
	// beyond this count rejects further turns.
	MaxSessionMessages int
	// ContextWindow is the number of recent messages fed to the model.
	ContextWindow int
}

type AIConfig struct {
	OllamaBaseURL string
	OllamaModel   string
}

type WeatherConfig struct {
	GeocodeBaseURL  string
	ForecastBaseURL string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:9001"),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Chat: ChatConfig{
			MaxSessionMessages: getEnvAsInt("CHAT_MAX_SESSION_MESSAGES", 100),
			ContextWindow:      getEnvAsInt("CHAT_CONTEXT_WINDOW", 30),
		},
		Ai: AIConfig{
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:   getEnv("OLLAMA_MODEL", "phi3"),
		},
		Weather: WeatherConfig{
			GeocodeBaseURL:  getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org"),
			ForecastBaseURL: getEnv("FORECAST_BASE_URL", "https://api.open-meteo.com"),
		},
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
