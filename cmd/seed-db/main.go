package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/aulakit/checkout/internal/repository"
)

type courseJSON struct {
	ID            string           `json:"id"`
	Title         string           `json:"title"`
	IsPublished   bool             `json:"isPublished"`
	ListPrice     decimal.Decimal  `json:"listPrice"`
	DiscountPrice *decimal.Decimal `json:"discountPrice"`
	IsFree        bool             `json:"isFree"`
}

func main() {
	var (
		databaseURL  string
		coursesFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&coursesFile, "courses-file", "db/seed/courses.json", "path to courses JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed for the demo student (or CHECKOUT_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or CHECKOUT_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("CHECKOUT_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or CHECKOUT_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("CHECKOUT_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, coursesFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, coursesFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	userID, err := seedStudent(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "seed student")
	}

	if err := seedAPIKey(ctx, pool, userID, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	if err := seedCourses(ctx, pool, coursesFile); err != nil {
		return errors.Wrap(err, "seed courses")
	}

	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}

	return nil
}

func seedStudent(ctx context.Context, pool *pgxpool.Pool) (string, error) {
	slog.Info("seeding demo student")

	const q = `
		INSERT INTO users (id, email, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (email) DO UPDATE SET full_name = EXCLUDED.full_name
		RETURNING id`

	var id uuid.UUID
	err := pool.QueryRow(ctx, q, uuid.New(), "student@example.com", "Demo Student").Scan(&id)
	if err != nil {
		return "", errors.Wrap(err, "upsert demo student")
	}

	slog.Info("upserted student", slog.String("id", id.String()), slog.String("email", "student@example.com"))

	return id.String(), nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, userID, apiKey, pepper string) error {
	slog.Info("seeding demo API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	const q = `
		INSERT INTO api_keys (id, key_hash, user_id, name, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (key_hash) DO UPDATE SET name = EXCLUDED.name, active = TRUE`

	if _, err := pool.Exec(ctx, q, uuid.New(), keyHash, userID, "Demo student key"); err != nil {
		return errors.Wrap(err, "upsert demo API key")
	}

	slog.Info("upserted API key", slog.String("name", "Demo student key"))

	return nil
}

func seedCourses(ctx context.Context, pool *pgxpool.Pool, coursesFile string) error {
	slog.Info("reading courses file", slog.String("path", coursesFile))

	data, err := os.ReadFile(coursesFile)
	if err != nil {
		return errors.Wrap(err, "read courses file")
	}

	var courses []courseJSON
	if err := json.Unmarshal(data, &courses); err != nil {
		return errors.Wrap(err, "parse courses JSON")
	}

	slog.Info("upserting courses", slog.Int("count", len(courses)))

	const q = `
		INSERT INTO courses (id, title, is_published, list_price, discount_price, is_free)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title          = EXCLUDED.title,
			is_published   = EXCLUDED.is_published,
			list_price     = EXCLUDED.list_price,
			discount_price = EXCLUDED.discount_price,
			is_free        = EXCLUDED.is_free`

	for _, c := range courses {
		if _, err := pool.Exec(ctx, q, c.ID, c.Title, c.IsPublished, c.ListPrice, c.DiscountPrice, c.IsFree); err != nil {
			return errors.Wrapf(err, "upsert course %s", c.ID)
		}

		slog.Info("upserted course", slog.String("id", c.ID), slog.String("title", c.Title))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo coupons")

	now := time.Now()
	coupons := []struct {
		code          string
		description   string
		discountType  string
		discountValue decimal.Decimal
		minimumAmount decimal.Decimal
		usageLimit    *int
	}{
		{
			code:          "WELCOME10",
			description:   "Welcome: 10% off any order",
			discountType:  "percentage",
			discountValue: decimal.NewFromInt(10),
			minimumAmount: decimal.Zero,
		},
		{
			code:          "SPRING25",
			description:   "Spring sale: $25 off orders of $50 or more",
			discountType:  "fixed",
			discountValue: decimal.NewFromInt(25),
			minimumAmount: decimal.NewFromInt(50),
			usageLimit:    intPtr(100),
		},
		{
			code:          "SOLO15",
			description:   "15% off, redeemable exactly once",
			discountType:  "percentage",
			discountValue: decimal.NewFromInt(15),
			minimumAmount: decimal.Zero,
			usageLimit:    intPtr(1),
		},
		{
			code:          "FREEPASS",
			description:   "100% off for partner giveaways",
			discountType:  "percentage",
			discountValue: decimal.NewFromInt(100),
			minimumAmount: decimal.Zero,
		},
	}

	const q = `
		INSERT INTO coupons (code, description, discount_type, discount_value, minimum_amount, usage_limit, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (code) DO UPDATE SET
			description    = EXCLUDED.description,
			discount_type  = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			minimum_amount = EXCLUDED.minimum_amount,
			usage_limit    = EXCLUDED.usage_limit,
			valid_to       = EXCLUDED.valid_to,
			is_active      = TRUE`

	for _, c := range coupons {
		_, err := pool.Exec(ctx, q,
			c.code, c.description, c.discountType, c.discountValue, c.minimumAmount, c.usageLimit,
			now, now.AddDate(1, 0, 0),
		)
		if err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.code)
		}

		slog.Info("upserted coupon", slog.String("code", c.code), slog.String("description", c.description))
	}

	return nil
}

func intPtr(v int) *int { return &v }
