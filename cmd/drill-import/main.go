package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/sansudrill/drill-backend/internal/config"
	"github.com/sansudrill/drill-backend/internal/db"
	"github.com/sansudrill/drill-backend/internal/importer"
	"github.com/sansudrill/drill-backend/internal/sheet"
)

func main() {
	var (
		file      = flag.String("file", "", "xlsx workbook with question content (required)")
		sheetName = flag.String("sheet", "", "sheet name (default: first sheet)")
	)
	flag.Parse()
	if *file == "" {
		log.Fatal("-file is required")
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := sheet.NewSQLStore(dbh)

	n, err := importer.Load(ctx, store, *file, *sheetName)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	log.Printf("imported %d question rows from %s", n, *file)
}
