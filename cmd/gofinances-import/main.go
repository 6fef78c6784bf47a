package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"gofinances/internal/cli"
	"gofinances/internal/services"
	"gofinances/internal/storage"
)

// gofinances-import runs the bulk import pipeline against the SQLite store
// without going through the HTTP layer.
func main() {
	var (
		filePath = flag.String("file", "", "CSV file to import (title,type,value,category)")
		keep     = flag.Bool("keep", false, "keep the source file after a successful import")
	)
	flag.Parse()

	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "usage: gofinances-import -file transactions.csv [-keep]")
		os.Exit(2)
	}

	cfg, logger := cli.Bootstrap("import")

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	importService := services.NewImportService(repo, repo, nil)
	importService.EnforceBalance = cfg.ImportEnforceBalance

	ctx := context.Background()

	var result services.ImportResult
	if *keep {
		result, err = importFromReader(ctx, importService, *filePath)
	} else {
		result, err = importService.ImportFile(ctx, *filePath)
	}
	if err != nil {
		logger.Error("Import failed", "file", *filePath, "error", err)
		os.Exit(1)
	}

	logger.Info("Import finished",
		"file", *filePath,
		"imported", len(result.Transactions),
		"skipped_rows", result.Skipped)

	for _, t := range result.Transactions {
		fmt.Printf("%s  %-8s %10s  %s (%s)\n", t.ID, t.Type, t.Value, t.Title, t.Category.Title)
	}
}

func importFromReader(ctx context.Context, svc *services.ImportService, path string) (services.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return services.ImportResult{}, err
	}
	defer f.Close()
	return svc.Import(ctx, io.Reader(f))
}
