package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"marketplace/internal/config"
	"marketplace/internal/db"
	"marketplace/internal/importer"
	"marketplace/internal/logging"
	inventoryrepo "marketplace/internal/repository/inventory"
	productrepo "marketplace/internal/repository/product"
	inventorysvc "marketplace/internal/service/inventory"
)

func main() {
	var (
		filePath string
		sellerID int64
	)
	flag.StringVar(&filePath, "file", "", "Path to inventory CSV (seller_id,product_id,quantity,seller_price)")
	flag.Int64Var(&sellerID, "seller", 0, "Seller id for rows without a seller_id")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("importer")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.String("file", filePath), zap.Error(err))
	}
	defer f.Close()

	svc := inventorysvc.New(inventoryrepo.NewPostgres(pool, logger), productrepo.NewPostgres(pool, logger))
	imp := importer.NewCSVImporter(f, svc, sellerID)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal("import failed", zap.Int("imported", count), zap.Error(err))
	}

	fmt.Printf("Imported %d inventory rows in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
