package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"matka/controllers/admin"
	"matka/controllers/results"
	"matka/database"
	"matka/jobs"
	"matka/logger"
	"matka/routes"
	"matka/services"
	"matka/settlement"
	tasks "matka/task"
)

func main() {
	envErr := godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_ENCODING"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "build logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	if envErr != nil {
		log.Info("no .env file loaded, using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tz := os.Getenv("MARKET_TIMEZONE")
	if tz == "" {
		tz = "Asia/Kolkata"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Fatal("invalid MARKET_TIMEZONE", zap.String("value", tz), zap.Error(err))
	}

	db, err := database.Connect(log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if path := os.Getenv("CATALOG_FILE"); path != "" {
		cat, err := database.LoadCatalog(path)
		if err != nil {
			log.Fatal("failed to load catalog", zap.String("path", path), zap.Error(err))
		}
		if err := database.Seed(ctx, db, cat, log); err != nil {
			log.Fatal("failed to seed catalog", zap.Error(err))
		}
	}

	var oracle settlement.DrawOracle = settlement.NewRandomOracle()
	if feed := os.Getenv("DRAW_FEED_URL"); feed != "" {
		oracle = services.NewDrawFeed(feed, os.Getenv("DRAW_FEED_KEY"), services.DefaultDrawFeedTimeout)
		log.Info("using external draw feed", zap.String("url", feed))
	}

	store := settlement.NewGormStore(db)
	engine := settlement.New(store, settlement.NewDBRates(db), oracle, log,
		settlement.WithLocation(loc),
		settlement.WithMetrics(settlement.NewMetrics(prometheus.DefaultRegisterer)),
	)

	host := os.Getenv("HOST")
	port := os.Getenv("PORT")

	if host == "" {
		host = "127.0.0.1"
	}
	if port == "" {
		port = "3000"
	}

	app := fiber.New()
	routes.Setup(app, routes.Deps{
		Admin:       admin.NewResultHandler(engine, log),
		Results:     results.NewHandler(store),
		AdminSecret: os.Getenv("ADMIN_SECRET"),
	})

	if envBool("SCHEDULER_ENABLED", true) {
		scheduler := jobs.NewResultScheduler(engine, store, log, envInt("SCHEDULER_PARALLELISM", 4))
		c, err := jobs.StartResultScheduler(ctx, scheduler, loc)
		if err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
		if _, err := c.AddFunc("30 3 * * *", func() {
			_, _ = tasks.ReportStaleBets(ctx, db, log, time.Now().In(loc))
		}); err != nil {
			log.Fatal("failed to schedule stale bet check", zap.Error(err))
		}
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	log.Info("server running", zap.String("addr", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			log.Panic("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	log.Info("gracefully shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited cleanly")
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
