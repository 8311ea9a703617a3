package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/cristalhq/aconfig"
	"go.uber.org/zap"

	"github.com/xenking/wildgarden/internal/storage/postgres"
)

type config struct {
	DatabaseURL string   `usage:"PostgreSQL connection URL (or DATABASE_URL env)" flag:"database-url"`
	Files       []string `usage:"Comma separated gzip files of CODE,PERCENT[,START[,END]] lines" flag:"files"`
	BatchSize   int      `default:"1000" usage:"Codes inserted per batch" flag:"batch-size"`
	Capacity    uint     `default:"1000000" usage:"Expected number of stored codes, sizes the bloom filter" flag:"capacity"`
}

func main() {
	lg, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = lg.Sync() }()

	var cfg config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "WILDGARDEN",
		SkipFiles: true,
	})
	if err := loader.Load(); err != nil {
		lg.Fatal("Load config", zap.Error(err))
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		lg.Fatal("Database URL is required: set --database-url or DATABASE_URL")
	}
	if len(cfg.Files) == 0 {
		lg.Fatal("No input files: set --files")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Fatal("Connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		lg.Fatal("Run migrations", zap.Error(err))
	}

	imp := &importer{
		store:     postgres.NewDiscountCodeRepository(pool),
		lg:        lg,
		batchSize: cfg.BatchSize,
		capacity:  cfg.Capacity,
	}
	st, err := imp.Run(ctx, cfg.Files)
	if err != nil {
		lg.Fatal("Code import failed", zap.Error(err))
	}
	lg.Info("Code import completed",
		zap.Int64("lines", st.Lines),
		zap.Int64("invalid", st.Invalid),
		zap.Int64("duplicates", st.Duplicates),
		zap.Int64("existing", st.Existing),
		zap.Int64("inserted", st.Inserted),
	)
}
