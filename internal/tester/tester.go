package tester

import (
	"os"

	"github.com/emrgen/recall/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testPath = "../../.test/"
)

var (
	db *gorm.DB
)

func Setup() {
	RemoveTestDir()

	_ = os.Setenv("ENV", "test")

	err := os.MkdirAll(testPath+"db", os.ModePerm)
	if err != nil {
		panic(err)
	}

	err = os.MkdirAll(StorageRoot(), os.ModePerm)
	if err != nil {
		panic(err)
	}

	db, err = gorm.Open(sqlite.Open(testPath+"db/recall.db"), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	err = model.Migrate(db)
	if err != nil {
		panic(err)
	}
}

func TestDB() *gorm.DB {
	return db
}

// StorageRoot is the managed attachment root used by tests.
func StorageRoot() string {
	return testPath + "files"
}

func RemoveTestDir() {
	err := os.RemoveAll(testPath)
	if err != nil {
		panic(err)
	}
}
