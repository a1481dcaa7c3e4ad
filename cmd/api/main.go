package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/tu-usuario/lotes-pos/internal/application/auth"
	"github.com/tu-usuario/lotes-pos/internal/application/inventory"
	"github.com/tu-usuario/lotes-pos/internal/application/usecase"
	"github.com/tu-usuario/lotes-pos/internal/infrastructure/lock"
	"github.com/tu-usuario/lotes-pos/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/lotes-pos/internal/interfaces/http"
	"github.com/tu-usuario/lotes-pos/pkg/config"
	"github.com/tu-usuario/lotes-pos/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Guard de concurrencia por (producto, ubicación): Redis si hay más de un
	// nodo detrás del balanceador; en memoria para despliegues de un solo nodo.
	var locker inventory.Locker
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, cfg.Lock.TTL, cfg.Lock.MaxWait)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("locks distribuidos en Redis")
	} else {
		locker = lock.NewMemoryLocker(cfg.Lock.MaxWait)
		log.Info().Msg("locks en memoria (un solo nodo)")
	}

	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	batchRepo := postgres.NewBatchRepository(pool)
	ledgerRepo := postgres.NewLedgerRepository(pool)
	transferRepo := postgres.NewTransferRepository(pool)
	returnRepo := postgres.NewReturnRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	productUC := usecase.NewProductUseCase(productRepo)
	locationUC := usecase.NewLocationUseCase(locationRepo)
	receiveUC := inventory.NewReceiveUseCase(batchRepo, productRepo, locationRepo)
	planUC := inventory.NewPlanUseCase(batchRepo, productRepo, locationRepo)
	consumeUC := inventory.NewConsumeUseCase(txRunner, locker)
	transferUC := inventory.NewTransferUseCase(txRunner, locker, transferRepo, productRepo, locationRepo)
	returnUC := inventory.NewReturnUseCase(txRunner, locker, returnRepo, batchRepo, productRepo, locationRepo)
	adjustUC := inventory.NewAdjustUseCase(txRunner, locker, batchRepo)
	stockUC := inventory.NewStockUseCase(batchRepo, ledgerRepo, transferRepo, returnRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Lotes POS API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:     authUC,
		ProductUC:  productUC,
		LocationUC: locationUC,
		ReceiveUC:  receiveUC,
		PlanUC:     planUC,
		ConsumeUC:  consumeUC,
		TransferUC: transferUC,
		ReturnUC:   returnUC,
		AdjustUC:   adjustUC,
		StockUC:    stockUC,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
