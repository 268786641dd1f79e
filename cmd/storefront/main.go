package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/avdeev/go_storefront/internal/cartsync"
	"github.com/avdeev/go_storefront/internal/catalog"
	"github.com/avdeev/go_storefront/internal/checkout"
	"github.com/avdeev/go_storefront/internal/httpapi"
	"github.com/avdeev/go_storefront/internal/inventory"
	"github.com/avdeev/go_storefront/internal/notify"
	"github.com/avdeev/go_storefront/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	log.Println("storefront starting...")

	httpPort := getEnv("HTTP_PORT", "8080")
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")
	requestTimeout := 30 * time.Second
	shutdownTimeout := 10 * time.Second

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}
	creds := &repository.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "storefront"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer redisClient.Close()
	catalogClient := catalog.NewClient(repo, catalog.NewRedisCache(redisClient))

	registry := cartsync.NewRegistry(repo)
	feed := cartsync.NewFeed(registry, kafkaBrokers...)
	defer feed.Close()
	cartPublisher := cartsync.NewPublisher(kafkaBrokers...)
	defer cartPublisher.Close()

	notifier := notify.NewKafkaNotifier(kafkaBrokers...)

	validator := inventory.NewValidator(repo)
	reconciler := inventory.NewReconciler(repo)
	builder := checkout.NewBuilder(repo, repo)
	coordinator := checkout.NewCoordinator(repo, validator, reconciler, repo, notifier, cartPublisher)

	router := httpapi.NewRouter(
		httpapi.NewCartHandler(registry, requestTimeout),
		httpapi.NewCheckoutHandler(builder, coordinator, requestTimeout),
		httpapi.NewOrdersHandler(repo, coordinator, requestTimeout),
		httpapi.NewProductHandler(catalogClient, requestTimeout),
	)

	feedCtx, stopFeed := context.WithCancel(context.Background())
	go feed.Run(feedCtx)

	srv := &http.Server{
		Addr:         ":" + httpPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront listening on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down storefront...")
	stopFeed()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("storefront stopped")
}
