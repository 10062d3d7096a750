package container

import (
	"fmt"
	"os"

	"github.com/lyzr/workflowdsl/cmd/catalog/repository"
	"github.com/lyzr/workflowdsl/cmd/catalog/service"
	"github.com/lyzr/workflowdsl/common/bootstrap"
	"github.com/lyzr/workflowdsl/common/redis"
	goredis "github.com/redis/go-redis/v9"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components  *bootstrap.Components
	Redis       *goredis.Client
	DecodeCache *redis.Client

	// Repositories
	ArtifactRepo *repository.ArtifactRepository
	CASBlobRepo  *repository.CASBlobRepository
	TagRepo      *repository.TagRepository

	// Services
	CASService      *service.CASService
	ArtifactService *service.ArtifactService
	TagService      *service.TagService
	WorkflowService *service.WorkflowService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	// Create Redis client
	redisClient := newRedisClient()
	decodeCache := redis.NewClient(redisClient, components.Logger)

	// Initialize repositories
	artifactRepo := repository.NewArtifactRepository(components.DB)
	casBlobRepo := repository.NewCASBlobRepository(components.DB)
	tagRepo := repository.NewTagRepository(components.DB)

	// Initialize services (bottom-up: dependencies first)
	casService := service.NewCASService(casBlobRepo, components.Logger)
	artifactService := service.NewArtifactService(artifactRepo, components.Logger)
	tagService := service.NewTagService(tagRepo, components.Logger)
	workflowService := service.NewWorkflowService(
		casService,
		artifactService,
		tagService,
		decodeCache,
		components.Config.Catalog.DecodeCacheTTL,
		components.Logger,
	)

	return &Container{
		Components:      components,
		Redis:           redisClient,
		DecodeCache:     decodeCache,
		ArtifactRepo:    artifactRepo,
		CASBlobRepo:     casBlobRepo,
		TagRepo:         tagRepo,
		CASService:      casService,
		ArtifactService: artifactService,
		TagService:      tagService,
		WorkflowService: workflowService,
	}, nil
}

// newRedisClient builds the underlying go-redis driver client from
// environment variables; common/redis.Client wraps it for instrumentation.
func newRedisClient() *goredis.Client {
	redisHost := getEnv("REDIS_HOST", "localhost")
	redisPort := getEnv("REDIS_PORT", "6379")
	redisPassword := getEnv("REDIS_PASSWORD", "")

	return goredis.NewClient(&goredis.Options{
		Addr:     fmt.Sprintf("%s:%s", redisHost, redisPort),
		Password: redisPassword,
		DB:       0,
	})
}

// getEnv gets an environment variable or returns a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
