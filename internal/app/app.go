package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"todolist/internal/cache"
	"todolist/internal/config"
	"todolist/internal/repo"
	"todolist/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type App struct {
	cfg    config.Config
	log    *slog.Logger
	mongo  *mongo.Client
	pg     *pgxpool.Pool
	sqlite *sql.DB
	redis  *redis.Client
	router *gin.Engine
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	todoRepo, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}

	var todoCache *cache.TodoCache
	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.redis = rdb
		todoCache = cache.NewTodoCache(rdb, cfg.Redis.DefaultTTL.Duration())
		log.Info("list cache enabled", "redis", cfg.Redis.Addr, "ttl", cfg.Redis.DefaultTTL.Duration())
	}

	todoSvc := service.NewTodoService(todoRepo, todoCache, log.With("component", "todo_service"))
	a.router = NewRouter(cfg, todoSvc, log)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.log.Warn("mongo disconnect", "error", err)
		}
	}
	if a.pg != nil {
		a.pg.Close()
	}
	if a.sqlite != nil {
		_ = a.sqlite.Close()
	}
	return nil
}

// openStore connects the configured backend and returns its repository.
func (a *App) openStore(ctx context.Context) (repo.TodoRepo, error) {
	cfg := a.cfg
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := newMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		a.mongo = client
		db := cfg.MongoDatabase()
		a.log.Info("store connected", "driver", "mongo", "database", db, "collection", cfg.Mongo.Collection)
		return repo.NewMongoTodoRepo(client.Database(db).Collection(cfg.Mongo.Collection)), nil

	case config.StorePostgres:
		if err := repo.MigratePostgres(ctx, cfg.PG.DSN); err != nil {
			return nil, err
		}
		pool, err := newPostgres(ctx, cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		a.pg = pool
		a.log.Info("store connected", "driver", "postgres")
		return repo.NewPGTodoRepo(pool), nil

	case config.StoreSQLite:
		db, err := repo.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		a.sqlite = db
		a.log.Info("store connected", "driver", "sqlite", "path", cfg.SQLite.Path)
		return repo.NewSQLiteTodoRepo(db), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func newMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(cfg config.Config, todoSvc *service.TodoService, log *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(log))
	r.Use(cors.New(corsConfig(cfg.HTTP.CORSOrigins)))

	Setup(r, cfg, todoSvc, log)
	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}
