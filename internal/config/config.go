package config

import (
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Config carries the process configuration. The attachment root is threaded
// explicitly through the services rather than read from ambient state.
type Config struct {
	DBDriver     string // sqlite or postgres
	DBPath       string // sqlite file path
	DBURL        string // postgres dsn
	StorageRoot  string // managed attachment root
	RedisAddr    string // optional node cache
	KafkaBrokers string // optional package event queue
}

func LoadConfig() *Config {
	cnf := &Config{
		DBDriver:     getenv("DB_DRIVER", "sqlite"),
		DBPath:       getenv("DB_PATH", "./.recall/recall.db"),
		DBURL:        os.Getenv("DB_URL"),
		StorageRoot:  getenv("STORAGE_ROOT", "./.recall/files"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),
	}

	return cnf
}

// GetDb opens the configured database.
func GetDb(cnf *Config) *gorm.DB {
	var db *gorm.DB
	var err error

	switch cnf.DBDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cnf.DBURL), &gorm.Config{})
	default:
		db, err = gorm.Open(sqlite.Open(cnf.DBPath), &gorm.Config{})
	}
	if err != nil {
		logrus.Fatalf("error connecting to database: %v", err)
	}

	return db
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
