// Command connectcheck is an ad-hoc connectivity smoke test for the document
// store: it resolves credentials, pings the database and dumps the most
// recently updated summaries as JSON.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"feedboard/internal/credentials"
	"feedboard/internal/records/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var (
		credsPath = flag.String("credentials", "service_account.json", "path to the credential blob")
		table     = flag.String("table", "", "summary table override")
		limit     = flag.Int("limit", 10, "number of documents to dump")
	)
	flag.Parse()

	if err := run(*credsPath, *table, *limit); err != nil {
		fmt.Fprintf(os.Stderr, "connectcheck: %v\n", err)
		os.Exit(1)
	}
}

func run(credsPath, table string, limit int) error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		creds, origin, err := credentials.Resolve(credsPath)
		if err != nil {
			return err
		}
		fmt.Printf("credentials: %s\n", origin)
		dsn = creds.DSN()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := postgres.NewSummaryRepository(db, postgres.WithTable(table))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := repo.Ping(ctx); err != nil {
		return err
	}
	fmt.Println("connection ok")

	docs, err := repo.LatestDocuments(ctx, limit)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("connected, but no documents found")
		return nil
	}

	out, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("latest %d documents:\n%s\n", len(docs), out)
	return nil
}
