package main

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/config"
	"github.com/mayanlabs/swap-watcher/db"
	"github.com/mayanlabs/swap-watcher/etherman"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mayanlabs/swap-watcher/registry"
	"github.com/mayanlabs/swap-watcher/solman"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// registerBurn opens orders for the swap messages one evm transaction
// emitted: circle burns and wormhole transfer pairs alike. Fast burns carry
// their forwarding hook inline, regular burns are registered as plain
// bridges.
func registerBurn(cliCtx *cli.Context) error {
	c, err := config.Load(cliCtx.String(flagCfg))
	if err != nil {
		return err
	}
	setupLog(c.Log)

	chainName := cliCtx.String(flagChain)
	txHash := cliCtx.String(flagTx)
	var chainCfg *etherman.ChainConfig
	for i := range c.Etherman.Chains {
		if c.Etherman.Chains[i].Name == chainName {
			chainCfg = &c.Etherman.Chains[i]
			break
		}
	}
	if chainCfg == nil {
		return errors.Errorf("chain %s is not configured", chainName)
	}
	id, err := chain.FromName(chainName)
	if err != nil {
		return err
	}

	storage, err := db.NewStorage(c.Database)
	if err != nil {
		return err
	}
	defer storage.Close()

	tokens, err := newTokenDirectory(c.TokenCache, storage)
	if err != nil {
		return err
	}

	client, err := etherman.NewClient(*chainCfg, id)
	if err != nil {
		return err
	}

	ctx := context.Background()
	reg := registry.NewRegistry(storage, tokens, solman.NewClient(c.Solana))
	opened, err := reg.RegisterEVMBurn(ctx, client,
		common.HexToHash(txHash), cliCtx.String(flagTrader), nil)
	if err != nil {
		return err
	}
	if whOrder, err := reg.RegisterWhSwap(ctx, client, id,
		common.HexToHash(txHash), cliCtx.String(flagTrader)); err != nil {
		return err
	} else if whOrder != nil {
		opened = append(opened, whOrder)
	}
	for _, o := range opened {
		log.Infof("registered order %s, service %s, status %s", o.ID, o.Service, o.Status)
	}
	if len(opened) == 0 {
		log.Warnf("transaction %s published no swap messages", txHash)
	}
	return nil
}
