package router

import (
	"context"
	"fmt"

	"companion-connect/internal/adapters/storage/dynamo"
	mem "companion-connect/internal/adapters/storage/memory"
	pg "companion-connect/internal/adapters/storage/postgres"
	"companion-connect/internal/domain/animals"
	"companion-connect/internal/platform/config"
)

// Store es el backend elegido por configuración.
type Store struct {
	Repo    animals.Repository
	Backend string
	Close   func() error
}

// OpenStore abre el backend según cfg.StoreDriver.
func OpenStore(ctx context.Context, cfg config.Config) (Store, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.DriverDynamoDB:
		repo, err := dynamo.Open(ctx, dynamo.Config{
			Region:   cfg.AWSRegion,
			Table:    cfg.DynamoTable,
			Endpoint: cfg.DynamoEndpoint,
			Timeout:  cfg.StoreTimeout,
			PageSize: int32(cfg.ScanPageSize),
		})
		if err != nil {
			return Store{}, err
		}
		return Store{Repo: repo, Backend: config.DriverDynamoDB, Close: noop}, nil

	case config.DriverPostgres:
		repo, err := pg.Open(ctx, pg.Config{
			DSN:         cfg.DSN,
			PageSize:    cfg.ScanPageSize,
			PingTimeout: cfg.StoreTimeout,
		})
		if err != nil {
			return Store{}, err
		}
		return Store{Repo: repo, Backend: config.DriverPostgres, Close: repo.Close}, nil

	case config.DriverMemory, "":
		return Store{Repo: mem.NewAnimalRepo(cfg.ScanPageSize), Backend: config.DriverMemory, Close: noop}, nil
	}
	return Store{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
