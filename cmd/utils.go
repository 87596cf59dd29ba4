package cmd

import (
	"flag"
	"log"
	"time"

	"edusight-backend/internal/core"
	"edusight-backend/internal/database"

	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if configPath == "" {
		log.Printf("no env file specified, using os.Environ only")
		return
	}

	log.Printf("loading env from file %s", configPath)
	err := godotenv.Load(configPath)
	if err != nil {
		log.Fatalf("error loading .env file '%s': %v", configPath, err)
	}
}

// InitializeModelMetrics seeds a bookkeeping row per tracked model so /models
// returns the full roster before the first rollup lands.
func InitializeModelMetrics(db *gorm.DB) {
	for _, name := range core.DefaultModelNames {
		var rec database.ModelMetrics
		if err := db.Where(database.ModelMetrics{ModelName: name}).Attrs(database.ModelMetrics{
			ModelName:   name,
			LastUpdated: time.Now().UTC(),
		}).FirstOrCreate(&rec).Error; err != nil {
			log.Fatalf("Failed to create model metrics record for %s: %v", name, err)
		}
	}
}

// LoadLookups reads the optional domain/skill lookup file, falling back to
// the built-in tables when the path is empty.
func LoadLookups(path string) core.LookupTables {
	if path == "" {
		return core.DefaultLookupTables()
	}

	lookups, err := core.LoadLookupTables(path)
	if err != nil {
		log.Fatalf("Failed to load lookup tables from %s: %v", path, err)
	}
	return lookups
}
