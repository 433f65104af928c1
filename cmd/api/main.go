package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/spiralshops/spiral-api/internal/config"
	"github.com/spiralshops/spiral-api/internal/domain/billing"
	"github.com/spiralshops/spiral-api/internal/domain/ledger"
	"github.com/spiralshops/spiral-api/internal/domain/loyalty"
	"github.com/spiralshops/spiral-api/internal/domain/order"
	"github.com/spiralshops/spiral-api/internal/domain/promotion"
	"github.com/spiralshops/spiral-api/internal/domain/shopper"
	"github.com/spiralshops/spiral-api/internal/middleware"
	"github.com/spiralshops/spiral-api/internal/pkg/database"
	"github.com/spiralshops/spiral-api/internal/pkg/jwt"
	"github.com/spiralshops/spiral-api/internal/pkg/logger"
	pkgresponse "github.com/spiralshops/spiral-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting SPIRAL API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	// ---------- Repositories ----------
	shopperRepo := shopper.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	promotionRepo := promotion.NewRepository(db)

	// ---------- Services ----------
	balanceCache := ledger.NewBalanceCache(redis)
	ledgerService := ledger.NewService(ledgerRepo, balanceCache)
	promotionService := promotion.NewService(promotionRepo)
	shopperService := shopper.NewService(shopperRepo, jwtService, ledgerService, shopper.Bonuses{
		SignupPoints: cfg.SignupBonusPoints,
		InvitePoints: cfg.InviteBonusPoints,
	})

	resolver := loyalty.NewResolver(cfg.PickupMultiplier, cfg.InviteMultiplier)
	calculator := loyalty.NewCalculator(cfg.BaseEarnRate)

	orderService := order.NewService(
		&ledgerStoreAdapter{repo: ledgerRepo, cache: balanceCache},
		promotionService,
		resolver,
		calculator,
	)

	// ---------- Handlers ----------
	shopperHandler := shopper.NewHandler(shopperService)
	ledgerHandler := ledger.NewHandler(ledgerService, shopperRepo)
	orderHandler := order.NewHandler(orderService)
	promotionHandler := promotion.NewHandler(promotionService)
	billingHandler := billing.NewHandler()

	authMiddleware := middleware.Auth(jwtService)
	adminMiddleware := middleware.RequireRole(middleware.RoleAdmin)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/auth", shopperHandler.Routes())
		r.Mount("/orders", orderHandler.Routes(authMiddleware))
		r.Mount("/loyalty", ledgerHandler.Routes(authMiddleware))
		r.Mount("/billing", billingHandler.Routes())
		r.Mount("/admin/promotions", promotionHandler.Routes(authMiddleware, adminMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// ledgerStoreAdapter bridges the concrete ledger repository to the
// orchestrator's store interface and drops the cached balance after commits.
type ledgerStoreAdapter struct {
	repo  *ledger.Repository
	cache *ledger.BalanceCache
}

func (a *ledgerStoreAdapter) InTx(ctx context.Context, shopperID uuid.UUID, fn func(tx order.LedgerTx) error) error {
	return a.repo.InTx(ctx, shopperID, func(tx *ledger.Tx) error {
		return fn(tx)
	})
}

func (a *ledgerStoreAdapter) InvalidateBalance(ctx context.Context, shopperID uuid.UUID) {
	a.cache.Invalidate(ctx, shopperID)
}
