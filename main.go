package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/example/task-tracker/modules/admin"
	"github.com/example/task-tracker/modules/api"
	"github.com/example/task-tracker/modules/auth"
	"github.com/example/task-tracker/modules/cache"
	"github.com/example/task-tracker/modules/task"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Task Tracker ===")

	// One database connection shared across modules. SQLite does not like
	// concurrent writers on separate connections.
	db, err := gorm.Open(sqlite.Open(getEnv("DB_PATH", "tasktracker.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	jwtConfig := auth.JWTConfig{
		SecretKey:            getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		AccessTokenDuration:  getEnvDuration("JWT_ACCESS_DURATION", 15*time.Minute),
		RefreshTokenDuration: getEnvDuration("JWT_REFRESH_DURATION", 7*24*time.Hour),
		Issuer:               getEnv("JWT_ISSUER", "task-tracker"),
	}

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	authModule := auth.NewModule(db, jwtConfig)
	taskModule := task.NewModule(db, authModule.Service())

	// Redis is optional: without it the admin dashboard is computed on every
	// request and logout cannot revoke tokens early.
	var cacheModule *cache.CacheModule
	var dashCache admin.DashboardCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg := cache.DefaultConfig()
		cfg.RedisAddr = addr
		cfg.TTL = getEnvDuration("CACHE_TTL", cfg.TTL)
		cacheModule = cache.NewModule(cfg)
		dashCache = cacheModule.Cache()
	} else {
		log.Println("REDIS_ADDR not set, running without cache")
	}

	adminModule := admin.NewModule(authModule.Repository(), taskModule.Service(), dashCache)

	apiModule := api.NewModule(getEnvInt("HTTP_PORT", 3000))
	apiModule.SetTaskService(taskModule.Service())
	apiModule.SetAdminService(adminModule.Service())
	if cacheModule != nil {
		apiModule.SetCache(cacheModule.Cache())
	}

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	app.Register(authModule)
	app.Register(taskModule)
	if cacheModule != nil {
		app.Register(cacheModule)
	}
	app.Register(adminModule)
	app.Register(apiModule) // Depends on auth module

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Println("REST API Endpoints:")
	log.Println("")
	log.Println("  Public Endpoints:")
	log.Println("  POST   /api/v1/auth/register       - Register (signs you in)")
	log.Println("  POST   /api/v1/auth/login          - Login and get tokens")
	log.Println("  POST   /api/v1/auth/refresh        - Refresh access token")
	log.Println("  GET    /health                     - Health check")
	log.Println("")
	log.Println("  Protected Endpoints (require Bearer token):")
	log.Println("  POST   /api/v1/auth/logout         - Revoke the current token")
	log.Println("  GET    /api/v1/profile             - Get current user profile")
	log.Println("  PUT    /api/v1/profile             - Update profile")
	log.Println("  GET    /api/v1/tasks               - List tasks (?q= ?status= ?priority=)")
	log.Println("  POST   /api/v1/tasks               - Create a task")
	log.Println("  GET    /api/v1/tasks/stats         - Your task statistics")
	log.Println("  GET    /api/v1/tasks/:id           - Get a task")
	log.Println("  PUT    /api/v1/tasks/:id           - Update a task")
	log.Println("  DELETE /api/v1/tasks/:id           - Delete a task")
	log.Println("  POST   /api/v1/tasks/:id/complete  - Mark completed")
	log.Println("  POST   /api/v1/tasks/:id/progress  - Mark in progress")
	log.Println("")
	log.Println("  Admin Endpoints (require Admin role):")
	log.Println("  GET    /api/v1/admin/dashboard     - System overview")
	log.Println("  GET    /api/v1/admin/users         - User listing with task counts")
	log.Println("  GET    /api/v1/admin/tasks         - All tasks, same filters")
	log.Println("  GET    /api/v1/admin/activity      - Recent activity feed")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("Invalid %s=%q, using %d", key, value, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.Printf("Invalid %s=%q, using %s", key, value, fallback)
	}
	return fallback
}
