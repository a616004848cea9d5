package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config carries the process configuration, read once at startup
type Config struct {
	Port                    string
	Env                     string
	AuthProvider            string
	JWTSecret               string
	FirebaseCredentialsPath string
	PostgresConnStr         string
	MongoURI                string
	MongoDatabase           string
}

// Load reads configuration from the environment, loading a .env file
// first when one is present. Connection strings carry no defaults; InitDB
// rejects a missing one before dialing anything.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		AuthProvider:            getEnv("AUTH_PROVIDER", "local"), // "local" or "firebase"
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "buddychat"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
