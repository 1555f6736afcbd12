package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	jwtware "github.com/gofiber/jwt/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/isoko-rw/marketplace-backend/internal/cache"
	"github.com/isoko-rw/marketplace-backend/internal/cart"
	"github.com/isoko-rw/marketplace-backend/internal/checkout"
	"github.com/isoko-rw/marketplace-backend/internal/config"
	"github.com/isoko-rw/marketplace-backend/internal/fulfillment"
	"github.com/isoko-rw/marketplace-backend/internal/notify"
	"github.com/isoko-rw/marketplace-backend/internal/order"
	"github.com/isoko-rw/marketplace-backend/internal/outbox"
	"github.com/isoko-rw/marketplace-backend/internal/payment"
	"github.com/isoko-rw/marketplace-backend/internal/payment/momo"
	"github.com/isoko-rw/marketplace-backend/internal/payout"
	"github.com/isoko-rw/marketplace-backend/internal/product"
	"github.com/isoko-rw/marketplace-backend/internal/supplier"
)

// main wires repositories, services and handlers and starts the HTTP server.
func main() {
	_ = godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		panic("JWT_SECRET is not set")
	}

	db := mustOpenDB(cfg.DatabaseURL)
	defer db.Close()
	ensureSchema(db)

	app := fiber.New()
	setupCORS(app)

	queue := outbox.NewPostgresQueue(db)

	supplierService := supplier.NewService(supplier.NewPostgresRepository(db))
	supplierHandler := supplier.NewHandler(supplierService)

	productService := product.NewService(product.NewPostgresRepository(db))
	productHandler := product.NewHandler(productService)

	cartService := cart.NewService(cart.NewPostgresRepository(db), productService)
	cartHandler := cart.NewHandler(cartService, cfg.DeliveryFee, cfg.FreeShippingThreshold)

	orderRepo := order.NewPostgresRepository(db)

	tokens := cache.NewRedisCache(cfg.RedisAddr, "isoko")
	provider := momo.NewClient(cfg.Momo, tokens)
	paymentRepo := payment.NewPostgresRepository(db, queue)
	paymentService := payment.NewService(paymentRepo, orderRepo, provider)
	paymentHandler := payment.NewHandler(paymentService)

	checkoutService := checkout.NewService(cartService, supplierService, checkout.NewPostgresStore(db, queue),
		orderRepo, paymentRepo, paymentService, cfg.DeliveryFee, cfg.FreeShippingThreshold)
	checkoutHandler := checkout.NewHandler(checkoutService)

	fulfillmentHandler := fulfillment.NewHandler(fulfillment.NewService(fulfillment.NewPostgresRepository(db)))

	payoutHandler := payout.NewHandler(payout.NewService(payout.NewPostgresRepository(db), supplierService))

	// public routes go in before the JWT middleware
	productHandler.RegisterPublicRoutes(app)
	paymentHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey: []byte(cfg.JWTSecret),
	}))

	supplierHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	checkoutHandler.RegisterProtectedRoutes(app)
	paymentHandler.RegisterProtectedRoutes(app)
	fulfillmentHandler.RegisterProtectedRoutes(app)
	payoutHandler.RegisterProtectedRoutes(app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notify.NewHTTPNotifier(cfg.SMSWebhookURL, cfg.EmailWebhookURL, cfg.InvoiceServiceURL)
	worker := outbox.NewWorker(queue, notify.Dispatcher(notifier), 5*time.Second)
	go worker.Run(ctx)

	go func() {
		<-ctx.Done()
		_ = app.Shutdown()
	}()

	slog.Info("starting server", "addr", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}

func mustOpenDB(dbURL string) *sql.DB {
	if dbURL == "" {
		panic("DATABASE_URL is not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		panic(err)
	}

	if err := db.Ping(); err != nil {
		panic(err)
	}

	return db
}

// ensureSchema creates every table the repositories expect. Statements are
// idempotent so restarts against an existing database are safe.
func ensureSchema(db *sql.DB) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS suppliers (
			"supplierID" SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			"commissionRate" numeric NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			"updatedAt" TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			"productID" SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price numeric NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'RWF',
			stock INT NOT NULL DEFAULT 0,
			"supplierID" INT REFERENCES suppliers ("supplierID"),
			active BOOLEAN NOT NULL DEFAULT TRUE,
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			"updatedAt" TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS inventory_log (
			"logID" SERIAL PRIMARY KEY,
			"productID" INT NOT NULL,
			change INT NOT NULL,
			"previousStock" INT NOT NULL,
			"newStock" INT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			reference TEXT NOT NULL DEFAULT '',
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS carts (
			"cartID" SERIAL PRIMARY KEY,
			"externalID" TEXT NOT NULL UNIQUE,
			"ownerKey" TEXT NOT NULL UNIQUE,
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			"updatedAt" TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			"itemID" SERIAL PRIMARY KEY,
			"cartID" INT NOT NULL REFERENCES carts ("cartID"),
			"productID" INT NOT NULL,
			"nameSnapshot" TEXT NOT NULL DEFAULT '',
			"priceSnapshot" numeric NOT NULL DEFAULT 0,
			quantity INT NOT NULL DEFAULT 1,
			currency TEXT NOT NULL DEFAULT 'RWF',
			UNIQUE ("cartID", "productID")
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			"orderID" SERIAL PRIMARY KEY,
			"orderNumber" TEXT NOT NULL UNIQUE,
			"customerID" INT NOT NULL,
			"customerName" TEXT NOT NULL DEFAULT '',
			"customerEmail" TEXT NOT NULL DEFAULT '',
			"customerPhone" TEXT NOT NULL DEFAULT '',
			"shippingAddress" TEXT NOT NULL DEFAULT '',
			"itemsSnapshot" jsonb NOT NULL DEFAULT '[]',
			"paymentStatus" TEXT NOT NULL DEFAULT 'PENDING',
			"deliveryStatus" TEXT NOT NULL DEFAULT 'PENDING',
			subtotal numeric NOT NULL DEFAULT 0,
			"deliveryFee" numeric NOT NULL DEFAULT 0,
			discount numeric NOT NULL DEFAULT 0,
			total numeric NOT NULL DEFAULT 0,
			"supplierCount" INT NOT NULL DEFAULT 0,
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			"updatedAt" TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS order_items (
			"orderItemID" SERIAL PRIMARY KEY,
			"orderID" INT NOT NULL REFERENCES orders ("orderID"),
			"productID" INT NOT NULL,
			"productName" TEXT NOT NULL DEFAULT '',
			"supplierID" INT,
			"unitPrice" numeric NOT NULL DEFAULT 0,
			quantity INT NOT NULL DEFAULT 1,
			"totalPrice" numeric NOT NULL DEFAULT 0,
			"commissionRate" numeric NOT NULL DEFAULT 0,
			"commissionAmount" numeric NOT NULL DEFAULT 0,
			"fulfillmentStatus" TEXT NOT NULL DEFAULT 'PENDING',
			"confirmedAt" TIMESTAMPTZ,
			"shippedAt" TIMESTAMPTZ,
			"deliveredAt" TIMESTAMPTZ,
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			"paymentID" SERIAL PRIMARY KEY,
			"orderID" INT NOT NULL REFERENCES orders ("orderID"),
			method TEXT NOT NULL DEFAULT '',
			provider TEXT,
			"phoneNumber" TEXT,
			amount numeric NOT NULL DEFAULT 0,
			currency TEXT NOT NULL DEFAULT 'RWF',
			"transactionID" TEXT UNIQUE,
			"providerReference" TEXT,
			status TEXT NOT NULL DEFAULT 'PENDING',
			"failureReason" TEXT,
			"paidAt" TIMESTAMPTZ,
			"failedAt" TIMESTAMPTZ,
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			"updatedAt" TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS deliveries (
			"deliveryID" SERIAL PRIMARY KEY,
			"orderID" INT NOT NULL REFERENCES orders ("orderID"),
			"trackingNumber" TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'PENDING',
			address TEXT NOT NULL DEFAULT '',
			"deliveredAt" TIMESTAMPTZ,
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			"updatedAt" TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS payment_webhooks (
			id SERIAL PRIMARY KEY,
			"externalID" TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			payload jsonb NOT NULL DEFAULT '{}',
			"receivedAt" TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS supplier_payouts (
			"payoutID" SERIAL PRIMARY KEY,
			"supplierID" INT NOT NULL REFERENCES suppliers ("supplierID"),
			"periodStart" TIMESTAMPTZ NOT NULL,
			"periodEnd" TIMESTAMPTZ NOT NULL,
			"grossAmount" numeric NOT NULL DEFAULT 0,
			"commissionAmount" numeric NOT NULL DEFAULT 0,
			"netAmount" numeric NOT NULL DEFAULT 0,
			"orderItemIDs" integer[] NOT NULL DEFAULT '{}',
			"itemCount" INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'PENDING',
			"paymentReference" TEXT,
			notes TEXT,
			"paidAt" TIMESTAMPTZ,
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			"updatedAt" TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE ("supplierID", "periodStart", "periodEnd")
		)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id SERIAL PRIMARY KEY,
			"eventID" TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			key TEXT NOT NULL DEFAULT '',
			payload jsonb NOT NULL DEFAULT '{}',
			"createdAt" TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			"sentAt" TIMESTAMPTZ
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			panic(err)
		}
	}
}
