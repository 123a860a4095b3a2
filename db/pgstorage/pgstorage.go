package pgstorage

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/gerror"
	"github.com/mayanlabs/swap-watcher/order"
	"github.com/mayanlabs/swap-watcher/token"
	"github.com/pkg/errors"
)

const (
	orderColumns = `id, service, status, trader, source_chain, source_tx_hash, dest_chain,
		from_token, from_token_symbol, from_amount, to_token, to_token_symbol, to_amount, min_amount_out,
		order_hash, cctp_nonce, cctp_domain, transfer_sequence, redeem_sequence,
		dest_address, referrer_addr, referrer_bps, mayan_bps, gas_drop, redeem_fee, refund_fee,
		deadline, created_at, updated_at, state_addr, winner, custom_payload`

	addOrderSQL = "INSERT INTO watcher.orders (" + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32)
		ON CONFLICT (id) DO NOTHING`

	getOrderSQL            = "SELECT " + orderColumns + " FROM watcher.orders WHERE id = $1"
	getOrderByStateSQL     = "SELECT " + orderColumns + " FROM watcher.orders WHERE state_addr = $1"
	getUnfinishedOrdersSQL = "SELECT " + orderColumns + " FROM watcher.orders WHERE NOT (status = ANY($1)) ORDER BY created_at"

	updateOrderStatusSQL = `UPDATE watcher.orders SET status = $3,
		to_amount = COALESCE($4, to_amount),
		transfer_sequence = COALESCE($5, transfer_sequence),
		redeem_sequence = COALESCE($6, redeem_sequence),
		winner = COALESCE($7, winner),
		state_addr = COALESCE($8, state_addr),
		source_tx_hash = COALESCE($9, source_tx_hash),
		order_hash = COALESCE($10, order_hash),
		updated_at = $11
		WHERE id = $1 AND status = $2`

	getCheckpointSQL = "SELECT signature FROM watcher.checkpoint WHERE target = $1"
	setCheckpointSQL = `INSERT INTO watcher.checkpoint (target, signature, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (target) DO UPDATE SET signature = excluded.signature, updated_at = excluded.updated_at`

	getTokenSQL = "SELECT symbol, decimals FROM watcher.token_metadata WHERE chain_id = $1 AND lower(contract) = lower($2)"
	putTokenSQL = `INSERT INTO watcher.token_metadata (chain_id, contract, symbol, decimals) VALUES ($1, $2, $3, $4)
		ON CONFLICT (chain_id, contract) DO UPDATE SET symbol = excluded.symbol, decimals = excluded.decimals`
)

// PostgresStorage persists orders, scan checkpoints and token metadata.
type PostgresStorage struct {
	db *pgxpool.Pool
}

// NewPostgresStorage creates the postgres storage from the configuration.
func NewPostgresStorage(cfg Config) (*PostgresStorage, error) {
	dbCfg, err := pgxpool.ParseConfig("postgres://" + cfg.User + ":" + cfg.Password + "@" + cfg.Host + ":" + cfg.Port + "/" + cfg.Name)
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		dbCfg.MaxConns = int32(cfg.MaxConns)
	}
	db, err := pgxpool.ConnectConfig(context.Background(), dbCfg)
	if err != nil {
		return nil, err
	}
	return &PostgresStorage{db: db}, nil
}

// Close releases the connection pool.
func (s *PostgresStorage) Close() {
	s.db.Close()
}

// AddOrder stores a new order. Replays of the same order are ignored.
func (s *PostgresStorage) AddOrder(ctx context.Context, o *order.Order) error {
	var deadline *time.Time
	if !o.Deadline.IsZero() {
		deadline = &o.Deadline
	}
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(ctx, addOrderSQL,
		o.ID, o.Service, o.Status, o.Trader, o.SourceChain, o.SourceTxHash, o.DestChain,
		o.FromToken, o.FromTokenSymbol, o.FromAmount, o.ToToken, o.ToTokenSymbol, o.ToAmount, o.MinAmountOut,
		o.OrderHash.Bytes(), int64(o.CctpNonce), int64(o.CctpDomain), o.TransferSequence, o.RedeemSequence,
		o.DestAddress, o.ReferrerAddr, int16(o.ReferrerBps), int16(o.MayanBps),
		int64(o.GasDrop), int64(o.RedeemFee), int64(o.RefundFee),
		deadline, createdAt, createdAt, o.StateAddr, o.Winner, o.CustomPayload)
	return err
}

// GetOrder fetches one order by id.
func (s *PostgresStorage) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	return scanOrder(s.db.QueryRow(ctx, getOrderSQL, id))
}

// GetOrderByStateAddr fetches the order behind a solana state account.
func (s *PostgresStorage) GetOrderByStateAddr(ctx context.Context, stateAddr string) (*order.Order, error) {
	return scanOrder(s.db.QueryRow(ctx, getOrderByStateSQL, stateAddr))
}

// GetUnfinishedOrders fetches every order that has not reached a terminal
// status, oldest first.
func (s *PostgresStorage) GetUnfinishedOrders(ctx context.Context) ([]*order.Order, error) {
	terminal := order.TerminalStatuses()
	statuses := make([]string, 0, len(terminal))
	for _, st := range terminal {
		statuses = append(statuses, string(st))
	}
	rows, err := s.db.Query(ctx, getUnfinishedOrdersSQL, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateOrderStatus applies the patch if the order still holds the expected
// status. It reports false without error when another writer got there
// first.
func (s *PostgresStorage) UpdateOrderStatus(ctx context.Context, id string, expected order.Status, patch order.Patch) (bool, error) {
	var orderHash []byte
	if patch.OrderHash != nil {
		orderHash = patch.OrderHash.Bytes()
	}
	tag, err := s.db.Exec(ctx, updateOrderStatusSQL,
		id, expected, patch.Status,
		patch.ToAmount, patch.TransferSequence, patch.RedeemSequence,
		patch.Winner, patch.StateAddr, patch.SourceTxHash, orderHash, time.Now())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// GetCheckpoint returns the newest handled signature of a scan target.
func (s *PostgresStorage) GetCheckpoint(ctx context.Context, target string) (string, error) {
	var signature string
	err := s.db.QueryRow(ctx, getCheckpointSQL, target).Scan(&signature)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errors.Wrap(gerror.ErrStorageNotFound, target)
	} else if err != nil {
		return "", err
	}
	return signature, nil
}

// SetCheckpoint stores the newest handled signature of a scan target.
func (s *PostgresStorage) SetCheckpoint(ctx context.Context, target, signature string) error {
	_, err := s.db.Exec(ctx, setCheckpointSQL, target, signature, time.Now())
	return err
}

// ResolveToken looks the token up in the metadata table.
func (s *PostgresStorage) ResolveToken(ctx context.Context, c chain.ID, contract string) (*token.Token, error) {
	t := &token.Token{Chain: c, Contract: contract}
	err := s.db.QueryRow(ctx, getTokenSQL, c, contract).Scan(&t.Symbol, &t.Decimals)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errors.Wrapf(gerror.ErrUnknownToken, "%s on %s", contract, c.Name())
	} else if err != nil {
		return nil, err
	}
	return t, nil
}

// StoreToken upserts token metadata.
func (s *PostgresStorage) StoreToken(ctx context.Context, t *token.Token) error {
	_, err := s.db.Exec(ctx, putTokenSQL, t.Chain, t.Contract, t.Symbol, int16(t.Decimals))
	return err
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row scannable) (*order.Order, error) {
	var (
		o         order.Order
		orderHash []byte
		cctpNonce int64
		domain    int64
		refBps    int16
		mayanBps  int16
		gasDrop   int64
		redeemFee int64
		refundFee int64
		deadline  *time.Time
	)
	err := row.Scan(&o.ID, &o.Service, &o.Status, &o.Trader, &o.SourceChain, &o.SourceTxHash, &o.DestChain,
		&o.FromToken, &o.FromTokenSymbol, &o.FromAmount, &o.ToToken, &o.ToTokenSymbol, &o.ToAmount, &o.MinAmountOut,
		&orderHash, &cctpNonce, &domain, &o.TransferSequence, &o.RedeemSequence,
		&o.DestAddress, &o.ReferrerAddr, &refBps, &mayanBps, &gasDrop, &redeemFee, &refundFee,
		&deadline, &o.CreatedAt, &o.UpdatedAt, &o.StateAddr, &o.Winner, &o.CustomPayload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, gerror.ErrStorageNotFound
	} else if err != nil {
		return nil, err
	}
	o.OrderHash = common.BytesToHash(orderHash)
	o.CctpNonce = uint64(cctpNonce)
	o.CctpDomain = uint32(domain)
	o.ReferrerBps = uint8(refBps)
	o.MayanBps = uint8(mayanBps)
	o.GasDrop = uint64(gasDrop)
	o.RedeemFee = uint64(redeemFee)
	o.RefundFee = uint64(refundFee)
	if deadline != nil {
		o.Deadline = *deadline
	}
	return &o, nil
}
