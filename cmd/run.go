package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/mayanlabs/swap-watcher/attester"
	"github.com/mayanlabs/swap-watcher/chain"
	"github.com/mayanlabs/swap-watcher/config"
	"github.com/mayanlabs/swap-watcher/db"
	"github.com/mayanlabs/swap-watcher/etherman"
	"github.com/mayanlabs/swap-watcher/follower"
	"github.com/mayanlabs/swap-watcher/intent"
	"github.com/mayanlabs/swap-watcher/log"
	"github.com/mayanlabs/swap-watcher/metrics"
	"github.com/mayanlabs/swap-watcher/registry"
	"github.com/mayanlabs/swap-watcher/scanner"
	"github.com/mayanlabs/swap-watcher/solman"
	"github.com/mayanlabs/swap-watcher/token"
	"github.com/urfave/cli/v2"
)

func start(cliCtx *cli.Context) error {
	configFilePath := cliCtx.String(flagCfg)
	c, err := config.Load(configFilePath)
	if err != nil {
		return err
	}
	setupLog(c.Log)

	if c.Metrics.Enabled {
		go metrics.StartMetricsHttpServer(c.Metrics)
	}

	err = db.RunMigrations(c.Database)
	if err != nil {
		log.Error(err)
		return err
	}
	storage, err := db.NewStorage(c.Database)
	if err != nil {
		log.Error(err)
		return err
	}
	defer storage.Close()

	tokens, err := newTokenDirectory(c.TokenCache, storage)
	if err != nil {
		log.Error(err)
		return err
	}

	solClient := solman.NewClient(c.Solana)
	targets := make([]scanner.Target, 0, len(c.Scanner.Targets))
	for _, t := range c.Scanner.Targets {
		protocol := intent.Protocol(t.Protocol)
		solClient.RegisterProgram(t.Program, intent.InstructionNames(protocol))
		if t.PayloadWriter != "" {
			solClient.RegisterProgram(t.PayloadWriter, []string{"createSimple"})
		}
		targets = append(targets, scanner.Target{
			Name:          t.Name,
			Protocol:      protocol,
			Program:       t.Program,
			PayloadWriter: t.PayloadWriter,
		})
	}

	evmClients, err := newEthermans(c.Etherman)
	if err != nil {
		log.Error(err)
		return err
	}

	reg := registry.NewRegistry(storage, tokens, solClient)
	scan := scanner.NewScanner(c.Scanner, solClient, &txHandler{registry: reg}, storage, targets)
	follow := follower.NewFollower(c.Follower, storage, solClient, evmClients, attester.NewClient(c.Attester), tokens)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go scan.Start(ctx)
	go follow.Start(ctx)
	log.Info("swap watcher is running")

	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func setupLog(c log.Config) {
	log.Init(c)
}

func newTokenDirectory(cfg token.RedisConfig, storage db.Storage) (*token.Directory, error) {
	resolvers := []token.Resolver{storage}
	if cfg.Addr != "" {
		redis, err := token.NewRedisResolver(cfg)
		if err != nil {
			return nil, err
		}
		// redis in front of the database table
		resolvers = append([]token.Resolver{redis}, resolvers...)
	}
	return token.NewDirectory(resolvers...), nil
}

func newEthermans(cfg etherman.Config) (map[chain.ID]follower.EVMClient, error) {
	clients := make(map[chain.ID]follower.EVMClient, len(cfg.Chains))
	for _, cc := range cfg.Chains {
		id, err := chain.FromName(cc.Name)
		if err != nil {
			return nil, err
		}
		client, err := etherman.NewClient(cc, id)
		if err != nil {
			return nil, err
		}
		clients[id] = client
	}
	return clients, nil
}

// txHandler feeds scanned transactions into the order registry.
type txHandler struct {
	registry *registry.Registry
}

func (h *txHandler) HandleTransaction(ctx context.Context, target scanner.Target, tx *solman.RawTransaction) error {
	instructions := make([]intent.Instruction, 0, len(tx.Instructions)+len(tx.InnerInstructions))
	instructions = append(instructions, tx.Instructions...)
	instructions = append(instructions, tx.InnerInstructions...)
	var payloads map[string][]byte
	if target.PayloadWriter != "" {
		payloads = intent.ExtractWriterPayloads(target.PayloadWriter, instructions)
	}
	for _, ins := range instructions {
		if ins.ProgramID != target.Program {
			continue
		}
		in, err := intent.Extract(target.Protocol, ins)
		if err != nil {
			return err
		}
		if in == nil {
			continue
		}
		if in.CustomPayloadAcc != "" {
			in.CustomPayload = payloads[in.CustomPayloadAcc]
		}
		if err := h.registry.ApplyIntent(ctx, in, tx.Signature); err != nil {
			return err
		}
	}
	return nil
}
