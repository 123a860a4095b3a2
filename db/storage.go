package db

import (
	"context"

	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/db/pgstorage"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/order"
	"github.com/mayanlabs/swap-watcher/token"
)

// Storage is the full persistence surface of the watcher.
type Storage interface {
	AddOrder(ctx context.Context, o *order.Order) error
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	GetOrderByStateAddr(ctx context.Context, stateAddr string) (*order.Order, error)
	GetUnfinishedOrders(ctx context.Context) ([]*order.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, expected order.Status, patch order.Patch) (bool, error)
	GetCheckpoint(ctx context.Context, target string) (string, error)
	SetCheckpoint(ctx context.Context, target, signature string) error
	ResolveToken(ctx context.Context, c chain.ID, contract string) (*token.Token, error)
	StoreToken(ctx context.Context, t *token.Token) error
	Close()
}

// NewStorage creates a new Storage
func NewStorage(cfg Config) (Storage, error) {
	if cfg.Database == "postgres" {
		return pgstorage.NewPostgresStorage(pgstorage.Config{
			Name:     cfg.Name,
			User:     cfg.User,
			Password: cfg.Password,
			Host:     cfg.Host,
			Port:     cfg.Port,
			MaxConns: cfg.MaxConns,
		})
	}
	return nil, gerror.ErrStorageNotRegister
}

// RunMigrations will execute pending migrations if needed to keep
// the database updated with the latest changes
func RunMigrations(cfg Config) error {
	config := pgstorage.Config{
		Name:     cfg.Name,
		User:     cfg.User,
		Password: cfg.Password,
		Host:     cfg.Host,
		Port:     cfg.Port,
	}
	return pgstorage.RunMigrations(config)
}
