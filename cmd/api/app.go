package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/2moro-engine/internal/adapters/cache"
	"github.com/comitanigiacomo/2moro-engine/internal/adapters/gemini"
	adapterHTTP "github.com/comitanigiacomo/2moro-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/2moro-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/2moro-engine/internal/config"
	"github.com/comitanigiacomo/2moro-engine/internal/core/ai"
	"github.com/comitanigiacomo/2moro-engine/internal/core/domain"
	"github.com/comitanigiacomo/2moro-engine/internal/core/onboarding"
	"github.com/comitanigiacomo/2moro-engine/internal/core/services"
	"github.com/comitanigiacomo/2moro-engine/internal/core/workers"
)

const localInsightCacheSize = 1024

type app struct {
	router *gin.Engine
	worker *workers.InsightWorker

	db  *sqlx.DB
	rdb *redis.Client
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

type repositories struct {
	habits   domain.HabitRepository
	users    domain.UserRepository
	memories domain.MemoryRepository
	people   domain.PersonRepository
}

func newRepositories(db *sqlx.DB) repositories {
	if db == nil {
		people := repository.NewInMemoryPersonRepository()
		return repositories{
			habits:   repository.NewInMemoryHabitRepository(),
			users:    repository.NewInMemoryUserRepository(),
			memories: repository.NewInMemoryMemoryRepository(people),
			people:   people,
		}
	}

	return repositories{
		habits:   repository.NewPostgresHabitRepository(db),
		users:    repository.NewPostgresUserRepository(db),
		memories: repository.NewPostgresMemoryRepository(db),
		people:   repository.NewPostgresPersonRepository(db),
	}
}

func newContentGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) services.ContentGenerator {
	if cfg.AI.APIKey == "" {
		logger.Warn("[AI] No API key configured, every synthesis will use its fallback")
		return nil
	}

	client, err := gemini.NewClient(ctx, cfg.AI.APIKey)
	if err != nil {
		logger.Error("[AI] Gemini client unavailable, every synthesis will use its fallback", zap.Error(err))
		return nil
	}

	logger.Info("[AI] Gemini ready", zap.Strings("models", cfg.AI.Models))
	return ai.NewFallbackClient(client, cfg.AI.Models, cfg.AI.AttemptTimeout, logger)
}

// newApp wires every component. The storage and cache drivers pick
// between Postgres/Redis adapters and their in-process equivalents.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, migrate bool) (*app, error) {
	a := &app{}

	if cfg.Storage == config.StoragePostgres {
		db, err := connectDB(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		a.db = db

		if migrate {
			if err := repository.Migrate(ctx, db, logger); err != nil {
				a.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
	}

	if cfg.Cache == config.CacheRedis {
		rdb, err := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.rdb = rdb
		logger.Info("[CACHE] Redis connected", zap.String("addr", cfg.Redis.Host+":"+cfg.Redis.Port), zap.Int("db", cfg.Redis.DB))
	}

	repos := newRepositories(a.db)

	var (
		stateStore   onboarding.StateStore
		gate         onboarding.Gate
		insightStore workers.InsightStore
	)
	if a.rdb != nil {
		repos.habits = repository.NewCachedHabitRepository(repos.habits, a.rdb, logger)
		stateStore = cache.NewRedisStateStore(a.rdb)
		gate = cache.NewRedisGate(a.rdb, cfg.OnboardingGateTTL(), logger)
		insightStore = cache.NewRedisInsightStore(a.rdb)
	} else {
		local, err := cache.NewLocalInsightStore(localInsightCacheSize)
		if err != nil {
			a.Close()
			return nil, err
		}
		stateStore = onboarding.NewMemoryStore()
		gate = onboarding.NewLocalGate()
		insightStore = local
	}

	tokenService := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL, repos.users)
	authService := services.NewAuthService(repos.users, tokenService)
	userService := services.NewUserService(repos.users)
	habitService := services.NewHabitService(repos.habits)
	profileService := services.NewProfileService(newContentGenerator(ctx, cfg, logger), repos.users, repos.memories, logger)
	onboardingService := services.NewOnboardingService(stateStore, gate, profileService, userService, logger)

	a.worker = workers.NewInsightWorker(repos.people, repos.memories, profileService, insightStore, logger)
	memoryService := services.NewMemoryService(repos.memories, repos.people, a.worker)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	a.router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:       adapterHTTP.NewAuthHandler(authService),
		UserHandler:       adapterHTTP.NewUserHandler(userService),
		OnboardingHandler: adapterHTTP.NewOnboardingHandler(onboardingService),
		HabitHandler:      adapterHTTP.NewHabitHandler(habitService),
		MemoryHandler:     adapterHTTP.NewMemoryHandler(memoryService),
		Tokens:            tokenService,
		DB:                a.db,
		Redis:             a.rdb,
		RateLimit:         cfg.RateLimit.Requests,
		RateWindow:        cfg.RateLimit.Window,
		Logger:            logger,
		StartTime:         time.Now(),
	})

	return a, nil
}
