package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/wildgarden/internal/domain/auth"
	"github.com/xenking/wildgarden/internal/domain/discount"
	"github.com/xenking/wildgarden/internal/domain/notice"
	"github.com/xenking/wildgarden/internal/domain/pricing"
	"github.com/xenking/wildgarden/internal/domain/product"
	"github.com/xenking/wildgarden/internal/domain/window"
	"github.com/xenking/wildgarden/internal/storage/postgres"
)

type config struct {
	DatabaseURL  string `usage:"PostgreSQL connection URL (or DATABASE_URL env)" flag:"database-url"`
	CatalogFile  string `default:"db/seed/catalog.json" usage:"Path to the catalog JSON file" flag:"catalog-file"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
	AdminKeyName string `usage:"Create an admin API key with this name and print it once" flag:"admin-key-name"`
}

type catalogFile struct {
	Products []struct {
		ID              string     `json:"id"`
		Name            string     `json:"name"`
		Description     string     `json:"description"`
		Category        string     `json:"category"`
		ImageURL        string     `json:"image_url"`
		Price           int64      `json:"price"`
		DiscountPercent int        `json:"discount_percent"`
		DiscountEnabled bool       `json:"discount_enabled"`
		DiscountStartAt *time.Time `json:"discount_start_at"`
		DiscountEndAt   *time.Time `json:"discount_end_at"`
		Active          *bool      `json:"active"`
	} `json:"products"`
	DiscountCodes []struct {
		Code    string     `json:"code"`
		Percent int        `json:"percent"`
		Enabled *bool      `json:"enabled"`
		StartAt *time.Time `json:"start_at"`
		EndAt   *time.Time `json:"end_at"`
	} `json:"discount_codes"`
	Notices []struct {
		Message string     `json:"message"`
		StartAt *time.Time `json:"start_at"`
		EndAt   *time.Time `json:"end_at"`
	} `json:"notices"`
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
	if cfg.AdminKeyName != "" && cfg.APIKeyPepper == "" {
		lg.Fatal("API key pepper is required to create an admin key")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("Seed failed", zap.Error(err))
	}
	lg.Info("Seed completed")
}

func run(ctx context.Context, lg *zap.Logger, cfg config) error {
	data, err := os.ReadFile(cfg.CatalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}
	var catalog catalogFile
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog file")
	}

	lg.Info("Connecting to database")
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	now := time.Now()
	if err := seedProducts(ctx, lg, postgres.NewProductRepository(pool), catalog, now); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCodes(ctx, lg, postgres.NewDiscountCodeRepository(pool), catalog, now); err != nil {
		return errors.Wrap(err, "seed discount codes")
	}
	if err := seedNotices(ctx, lg, postgres.NewNoticeRepository(pool), catalog, now); err != nil {
		return errors.Wrap(err, "seed notices")
	}
	if cfg.AdminKeyName != "" {
		if err := seedAdminKey(ctx, lg, postgres.NewAPIKeyRepository(pool), cfg); err != nil {
			return errors.Wrap(err, "seed admin key")
		}
	}
	return nil
}

func seedProducts(ctx context.Context, lg *zap.Logger, repo *postgres.ProductRepository, catalog catalogFile, now time.Time) error {
	for _, in := range catalog.Products {
		p := &product.Product{
			ID:          in.ID,
			Name:        in.Name,
			Description: in.Description,
			Category:    in.Category,
			ImageURL:    in.ImageURL,
			Price:       in.Price,
			Discount: product.Discount{
				Percent: pricing.ClampPercent(in.DiscountPercent),
				Enabled: in.DiscountEnabled,
				Window:  window.Window{Start: in.DiscountStartAt, End: in.DiscountEndAt}.Normalize(),
			},
			Active:    in.Active == nil || *in.Active,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := p.Discount.Window.Validate(); err != nil {
			return errors.Wrapf(err, "product %s", p.ID)
		}
		if err := repo.Upsert(ctx, p); err != nil {
			return err
		}
		lg.Info("Upserted product", zap.String("id", p.ID), zap.String("name", p.Name))
	}
	return nil
}

func seedCodes(ctx context.Context, lg *zap.Logger, repo *postgres.DiscountCodeRepository, catalog catalogFile, now time.Time) error {
	for _, in := range catalog.DiscountCodes {
		c := &discount.Code{
			Code:      discount.Normalize(in.Code),
			Percent:   pricing.ClampPercent(in.Percent),
			Enabled:   in.Enabled == nil || *in.Enabled,
			Window:    window.Window{Start: in.StartAt, End: in.EndAt}.Normalize(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if c.Code == "" {
			return errors.New("discount code without a code")
		}
		if err := c.Window.Validate(); err != nil {
			return errors.Wrapf(err, "discount code %s", c.Code)
		}
		if err := repo.Upsert(ctx, c); err != nil {
			return err
		}
		lg.Info("Upserted discount code", zap.String("code", c.Code), zap.Int("percent", c.Percent))
	}
	return nil
}

// seedNotices only runs against an empty notices table since notices have
// no natural key to upsert on.
func seedNotices(ctx context.Context, lg *zap.Logger, repo *postgres.NoticeRepository, catalog catalogFile, now time.Time) error {
	existing, err := repo.List(ctx, 1)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		lg.Info("Notices already present, skipping")
		return nil
	}
	for _, in := range catalog.Notices {
		n := &notice.Notice{
			ID:        uuid.New().String(),
			Message:   in.Message,
			Enabled:   true,
			Window:    window.Window{Start: in.StartAt, End: in.EndAt}.Normalize(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repo.Create(ctx, n); err != nil {
			return err
		}
		lg.Info("Created notice", zap.String("id", n.ID))
	}
	return nil
}

func seedAdminKey(ctx context.Context, lg *zap.Logger, repo *postgres.APIKeyRepository, cfg config) error {
	raw, err := auth.GenerateKey()
	if err != nil {
		return err
	}
	k := &auth.APIKeyInfo{
		ID:      uuid.New().String(),
		KeyHash: auth.HashKey([]byte(cfg.APIKeyPepper), raw),
		Name:    cfg.AdminKeyName,
		Scopes:  []string{auth.ScopeAdmin},
	}
	if err := repo.Create(ctx, k); err != nil {
		return err
	}
	lg.Info("Created admin API key", zap.String("id", k.ID), zap.String("name", k.Name))

	// The raw key is never stored; this is the only chance to copy it.
	fmt.Println(raw)
	return nil
}
