// Package app assembles the blog backend from configuration.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/klass-lk/folio"
	"github.com/klass-lk/folio/internal/config"
	"github.com/klass-lk/folio/internal/controller"
	"github.com/klass-lk/folio/internal/service"
	"github.com/klass-lk/folio/internal/store"
	"github.com/klass-lk/folio/security"
)

// OpenStore connects to the backend named by cfg.StoreDriver. The schema is
// not touched; call EnsureSchema on the result.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres, config.DriverSQLite:
		return store.NewSQLStore(cfg.SQLConfig())
	case config.DriverMongo:
		db, err := cfg.MongoConfig().Connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		return store.NewMongoStore(db), nil
	case config.DriverDynamoDB:
		dynamoConfig := cfg.DynamoDBConfig()
		client, err := folio.NewDynamoDBClient(ctx, dynamoConfig)
		if err != nil {
			return nil, fmt.Errorf("create dynamodb client: %w", err)
		}
		return store.NewDynamoDBStore(client, dynamoConfig), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// OpenReadyStore opens the store and applies the schema bootstrap.
func OpenReadyStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	s, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.EnsureSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

type App struct {
	Config *config.Config
	Store  store.Store
	Posts  *service.PostService
	Server *folio.Server
}

// New opens the store, bootstraps the schema once and builds the HTTP server
// with every controller the configuration enables.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	s, err := OpenReadyStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("store ready (driver=%s)", cfg.StoreDriver)

	posts := service.NewPostService(s)

	var files folio.FileService
	if cfg.UploadsEnabled() {
		client, err := folio.NewS3Client(ctx, cfg.AWSRegion)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("create s3 client: %w", err)
		}
		files = folio.NewS3FileService(client, cfg.S3Bucket, cfg.S3PublicBaseURL, cfg.S3UploadExpiry)
	}

	return &App{
		Config: cfg,
		Store:  s,
		Posts:  posts,
		Server: NewServer(cfg, posts, files),
	}, nil
}

// NewServer builds the server for cfg around an existing post service. A nil
// files disables cover uploads.
func NewServer(cfg *config.Config, posts *service.PostService, files folio.FileService) *folio.Server {
	server := folio.New().SetBasePath(cfg.BasePath)
	if cfg.Lambda {
		server.SetRuntime(folio.RuntimeLambda)
	}

	if len(cfg.CORSAllowOrigins) == 0 {
		server.DefaultCORS()
	} else {
		server.CustomCORS(
			cfg.CORSAllowOrigins,
			[]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			[]string{"Origin", "Content-Length", "Content-Type", "Authorization"},
			12*time.Hour,
		)
	}

	deps := controller.Deps{
		Posts: posts,
		Files: files,
	}
	if cfg.AdminAuthEnabled() {
		deps.Tokens = folio.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
		deps.Encoder = security.NewBcryptEncoder()
		deps.PasswordHash = cfg.AdminPasswordHash
	} else {
		log.Printf("admin auth is not configured; admin routes are open")
	}

	controller.Mount(server, deps)
	return server
}

// Run serves until ctx is cancelled and then closes the store.
func (a *App) Run(ctx context.Context) error {
	defer a.Store.Close()
	return a.Server.Start(ctx, a.Config.Port)
}
