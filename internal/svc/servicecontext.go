package svc

import (
	"log"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"coinflow/internal/analytics"
	"coinflow/internal/config"
	"coinflow/internal/etl"
	"coinflow/internal/warehouse"
	"coinflow/pkg/blob"
	"coinflow/pkg/source"
	_ "coinflow/pkg/source/coingecko"
)

type ServiceContext struct {
	Config config.Config

	SourceConfig    *source.Config
	SourceProviders map[string]source.Provider
	DefaultSource   source.Provider

	Store blob.Store

	DBConn    sqlx.SqlConn
	Warehouse *warehouse.Warehouse

	Pipeline  *etl.Pipeline
	Analytics *analytics.Engine
}

func NewServiceContext(c config.Config) *ServiceContext {
	svc := &ServiceContext{Config: c}

	if c.Source.Value == nil {
		log.Fatalf("source config is required (set Source.File in the main config)")
	}
	providers, err := c.Source.Value.BuildProviders()
	if err != nil {
		log.Fatalf("failed to build source providers: %v", err)
	}
	svc.SourceConfig = c.Source.Value
	svc.SourceProviders = providers
	switch {
	case c.Source.Value.Default != "":
		svc.DefaultSource = providers[c.Source.Value.Default]
	case len(providers) == 1:
		for _, provider := range providers {
			svc.DefaultSource = provider
		}
	default:
		log.Fatalf("source config must name a default provider when several are configured")
	}

	store, err := blob.NewFSStore(c.Blob.Root)
	if err != nil {
		log.Fatalf("failed to open blob store at %s: %v", c.Blob.Root, err)
	}
	svc.Store = store

	if c.Postgres.DSN == "" {
		log.Fatalf("postgres DSN is required")
	}
	conn := sqlx.NewSqlConn("pgx", c.Postgres.DSN)
	svc.DBConn = conn

	wh, err := warehouse.New(conn, c.Pipeline.Table)
	if err != nil {
		log.Fatalf("failed to init warehouse: %v", err)
	}
	svc.Warehouse = wh

	pipeline, err := etl.NewPipeline(svc.DefaultSource, store, wh, c.Pipeline.Assets, c.Pipeline.Limit, etl.Options{
		FetchTimeout:   c.Pipeline.FetchTimeout,
		StorageTimeout: c.Pipeline.StorageTimeout,
		LoadTimeout:    c.Pipeline.LoadTimeout,
	})
	if err != nil {
		log.Fatalf("failed to init pipeline: %v", err)
	}
	svc.Pipeline = pipeline

	engine, err := analytics.NewEngine(wh, c.Analytics)
	if err != nil {
		log.Fatalf("failed to init analytics engine: %v", err)
	}
	svc.Analytics = engine

	return svc
}
