package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pawelszalw/HireTree/internal/account"
	googleauth "github.com/pawelszalw/HireTree/internal/auth"
	"github.com/pawelszalw/HireTree/internal/llm"
	"github.com/pawelszalw/HireTree/internal/llm/anthropic"
	"github.com/pawelszalw/HireTree/internal/llm/gemini"
	"github.com/pawelszalw/HireTree/internal/llm/openai"
	"github.com/pawelszalw/HireTree/internal/profile"
	"github.com/pawelszalw/HireTree/internal/shared/config"
	"github.com/pawelszalw/HireTree/internal/shared/server"
	"github.com/pawelszalw/HireTree/internal/shared/storage/db"
	"github.com/pawelszalw/HireTree/internal/users"
)

// App holds shared dependencies.
type App struct {
	Config         config.Config
	Router         *gin.Engine
	DB             *sql.DB
	Provider       llm.Provider
	ProfileRepo    profile.Repo
	UsersRepo      users.Repo
	ProfileService *profile.Service
	AccountService *account.Service
	UsersService   *users.Service
	ProfileHandler *profile.Handler
	AccountHandler *account.Handler
	UsersHandler   *users.Handler
	GoogleAuth     *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Provider: provider,
	}

	var profileRepo profile.Repo
	var userRepo users.Repo
	if sqlDB != nil {
		profileRepo = &profile.PGRepo{DB: sqlDB}
		userRepo = &users.PGRepo{DB: sqlDB}
	} else {
		profileRepo = profile.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
	}

	userSvc := users.NewService(userRepo)
	profileSvc := profile.NewService(profileRepo, provider)
	accountSvc := account.NewService(profileSvc)
	googleAuthSvc := googleauth.NewGoogleService(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		cfg.UIRedirectURL,
		userSvc,
	)

	app.ProfileRepo = profileRepo
	app.UsersRepo = userRepo
	app.ProfileService = profileSvc
	app.AccountService = accountSvc
	app.UsersService = userSvc
	app.ProfileHandler = profile.NewHandler(profileSvc)
	app.AccountHandler = account.NewHandler(accountSvc)
	app.UsersHandler = users.NewHandler(userSvc)
	app.GoogleAuth = googleAuthSvc

	app.Router = server.NewRouter(server.RouterDeps{
		Config:         app.Config,
		ProfileHandler: app.ProfileHandler,
		AccountHandler: app.AccountHandler,
		UserHandler:    app.UsersHandler,
		GoogleAuth:     app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlDB, nil
}

func buildProvider(cfg config.Config) (llm.Provider, error) {
	switch cfg.AIProvider {
	case "openai":
		return openai.NewClient(cfg.OpenAIAPIKey, cfg.AIModel)
	case "claude":
		return anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AIModel)
	case "gemini":
		return gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.AIModel)
	case "mock", "":
		return llm.Mock{}, nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
