// Command loadingredients bulk-imports the ingredient catalog from a CSV
// file with "name,measurement_unit" rows. It runs offline, outside the
// request path.
package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/platefeed/backend/config"
)

func main() {
	filePath := flag.String("file", "data/ingredients.csv", "path to the ingredients CSV file")
	deleteExisting := flag.Bool("delete-existing", false, "delete existing ingredients before import")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	file, err := os.Open(*filePath)
	if err != nil {
		log.Fatalf("failed to open %s: %v", *filePath, err)
	}
	defer file.Close()

	tx, err := db.Begin()
	if err != nil {
		log.Fatalf("failed to begin transaction: %v", err)
	}

	if *deleteExisting {
		if _, err := tx.Exec("DELETE FROM ingredients"); err != nil {
			_ = tx.Rollback()
			log.Fatalf("failed to delete existing ingredients: %v", err)
		}
		log.Println("existing ingredients deleted")
	}

	stmt, err := tx.Prepare(pq.CopyIn("ingredients", "id", "name", "measurement_unit"))
	if err != nil {
		_ = tx.Rollback()
		log.Fatalf("failed to prepare COPY: %v", err)
	}

	reader := csv.NewReader(file)
	count := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			_ = tx.Rollback()
			log.Fatalf("failed to read CSV: %v", err)
		}
		if len(row) < 2 {
			_ = tx.Rollback()
			log.Fatalf("malformed CSV row: %v", row)
		}
		if _, err := stmt.Exec(uuid.New().String(), row[0], row[1]); err != nil {
			_ = tx.Rollback()
			log.Fatalf("failed to queue row: %v", err)
		}
		count++
	}

	if _, err := stmt.Exec(); err != nil {
		_ = tx.Rollback()
		log.Fatalf("failed to flush COPY: %v", err)
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		log.Fatalf("failed to close COPY: %v", err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("failed to commit: %v", err)
	}

	log.Printf("imported %d ingredients", count)
}
