package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/inkforge/inkforge-backend/api/routes"
	"github.com/inkforge/inkforge-backend/internal/assets"
	"github.com/inkforge/inkforge-backend/internal/auth"
	"github.com/inkforge/inkforge-backend/internal/cart"
	"github.com/inkforge/inkforge-backend/internal/notifications"
	"github.com/inkforge/inkforge-backend/internal/orders"
	"github.com/inkforge/inkforge-backend/internal/printfile"
	"github.com/inkforge/inkforge-backend/internal/products"
	"github.com/inkforge/inkforge-backend/internal/users"
	"github.com/inkforge/inkforge-backend/pkg/config"
	"github.com/inkforge/inkforge-backend/pkg/db"
	"github.com/inkforge/inkforge-backend/pkg/logger"
	"github.com/inkforge/inkforge-backend/pkg/mail"
	"github.com/inkforge/inkforge-backend/pkg/metrics"
	"github.com/inkforge/inkforge-backend/pkg/migrate"
	"github.com/inkforge/inkforge-backend/pkg/redis"
	"github.com/inkforge/inkforge-backend/pkg/storage"
	"github.com/inkforge/inkforge-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var store storage.Store
	var uploadDir string
	if cfg.Storage.UseGCS() {
		gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap gcs", err)
			os.Exit(1)
		}
		store, err = storage.NewGCSStore(gcsClient)
		if err != nil {
			logg.Error(context.Background(), "failed to create gcs store", err)
			os.Exit(1)
		}
	} else {
		local, err := storage.NewLocalStore(".", cfg.Storage)
		if err != nil {
			logg.Error(context.Background(), "failed to create local store", err)
			os.Exit(1)
		}
		store = local
		uploadDir = local.UploadDir()
	}

	mailer, err := mail.NewSender(cfg.SMTP)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail sender", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())
	assetsRepo := assets.NewRepository(dbClient.DB())

	notificationsSvc, err := notifications.NewService(notificationsRepo, usersRepo)
	exitOnWireError(logg, "notifications", err)

	productsSvc, err := products.NewService(productsRepo)
	exitOnWireError(logg, "products", err)

	cartSvc, err := cart.NewService(cartRepo, usersRepo, productsSvc)
	exitOnWireError(logg, "cart", err)

	ordersSvc, err := orders.NewService(ordersRepo, usersRepo, productsRepo, cartRepo, notificationsSvc, dbClient, logg)
	exitOnWireError(logg, "orders", err)

	authSvc, err := auth.NewService(usersRepo, mailer, cfg, logg)
	exitOnWireError(logg, "auth", err)

	usersSvc, err := users.NewService(usersRepo, cfg)
	exitOnWireError(logg, "users", err)

	assetsSvc, err := assets.NewService(assetsRepo, store, logg)
	exitOnWireError(logg, "assets", err)

	printFilesSvc, err := printfile.NewService(ordersRepo, store, cfg.PrintFile, logg)
	exitOnWireError(logg, "print files", err)

	httpMetrics := metrics.NewHTTPMetrics()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, uploadDir, routes.Services{
			Auth:          authSvc,
			Users:         usersSvc,
			Products:      productsSvc,
			Cart:          cartSvc,
			Orders:        ordersSvc,
			Notifications: notificationsSvc,
			Assets:        assetsSvc,
			PrintFiles:    printFilesSvc,
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}

func exitOnWireError(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	logg.Error(context.Background(), "failed to create "+name+" service", err)
	os.Exit(1)
}
