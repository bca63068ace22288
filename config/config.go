package config

import (
	"fmt"
	"os"
	"strconv"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/restaurant-reservation/services"
)

// Config dibaca dari environment (.env via godotenv di main)
type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	Port       string

	// Tunable solver kombinasi meja
	MaxTablesPerReservation int
	WasteTolerance          float64
}

func Load() Config {
	cfg := Config{
		DBDriver:   getEnv("DB_DRIVER", "mysql"),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "restaurant_reservation"),
		Port:       getEnv("PORT", "8080"),

		MaxTablesPerReservation: getEnvInt("RESERVATION_MAX_TABLES", services.DefaultMaxTables),
		WasteTolerance:          getEnvFloat("RESERVATION_WASTE_TOLERANCE", services.DefaultWasteTolerance),
	}
	return cfg
}

// FinderConfig menurunkan konfigurasi solver dari environment
func (c Config) FinderConfig() services.FinderConfig {
	return services.FinderConfig{
		MaxTables:      c.MaxTablesPerReservation,
		WasteTolerance: c.WasteTolerance,
	}
}

// InitDB membuka koneksi sesuai DB_DRIVER: mysql (default), postgres, atau
// sqlite untuk pemakaian lokal
func InitDB() (*gorm.DB, error) {
	cfg := Load()

	switch cfg.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "sqlite":
		path := getEnv("DB_PATH", "restaurant_reservation.db")
		return gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
