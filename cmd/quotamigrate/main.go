// Command quotamigrate runs the one-shot quota window anchor backfill:
// users missing first_generation_date get it from last_generation_date,
// or from now when they have never generated. Safe to run repeatedly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/infra"
	"server/internal/quota"
)

func main() {
	var (
		dbURL   = flag.String("database-url", "", "postgres connection string (defaults to DATABASE_URL)")
		timeout = flag.Duration("timeout", 30*time.Second, "overall run timeout")
		dryRun  = flag.Bool("dry-run", false, "report without writing")
	)
	flag.Parse()

	_ = godotenv.Load()

	url := *dbURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		fmt.Fprintln(os.Stderr, "database url is required (flag -database-url or DATABASE_URL)")
		os.Exit(2)
	}

	logger := infra.NewLogger(os.Getenv("APP_ENV"))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, &infra.Config{DatabaseURL: url})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if *dryRun {
		var pending int64
		err := pool.QueryRow(ctx, `
SELECT count(*) FROM users
WHERE first_generation_date IS NULL OR first_generation_date = ''
`).Scan(&pending)
		if err != nil {
			logger.Fatal().Err(err).Msg("count pending records")
		}
		fmt.Printf("%d user(s) would be migrated\n", pending)
		return
	}

	gate := quota.NewGate(repo.NewQuotaRepository(pool, logger), infra.QuotaFailOpen, logger)
	n, err := gate.BackfillWindowAnchor(ctx)
	if err != nil {
		logger.Fatal().Err(err).Msg("backfill failed")
	}
	fmt.Printf("migration complete, %d user(s) updated\n", n)
}
