// Command dvrpc-gateway runs the verifying JSON-RPC gateway: it fetches
// EIP-1186 proofs from an upstream execution node, verifies them against
// a locally tracked consensus head, and only then answers eth_ requests.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dvrpc-eth/dvrpc-node/internal/consensus"
	"github.com/dvrpc-eth/dvrpc-node/internal/node"
	"github.com/dvrpc-eth/dvrpc-node/internal/rpc"
	"github.com/dvrpc-eth/dvrpc-node/internal/upstream"
	"github.com/dvrpc-eth/dvrpc-node/log"
)

func main() {
	app := &cli.App{
		Name:  "dvrpc-gateway",
		Usage: "verifying JSON-RPC gateway for an Ethereum-like state chain",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a TOML config file"},
			&cli.StringFlag{Name: "host", Usage: "override [server] host"},
			&cli.IntFlag{Name: "port", Usage: "override [server] port"},
			&cli.StringFlag{Name: "log-level", Usage: "override [logging] level"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfig loads the TOML config named by the "config" flag through
// node.Load, which validates it, and then applies any CLI flag overrides
// on top. The overridden values are not validated again.
func resolveConfig(c *cli.Context) (node.Config, error) {
	cfg, err := node.Load(c.String("config"))
	if err != nil {
		return node.Config{}, fmt.Errorf("startup: %w", err)
	}
	if h := c.String("host"); h != "" {
		cfg.Server.Host = h
	}
	if p := c.Int("port"); p != 0 {
		cfg.Server.Port = uint16(p)
	}
	if lv := c.String("log-level"); lv != "" {
		cfg.Logging.Level = lv
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}

	logger := log.New(log.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, File: cfg.Logging.File})
	log.SetDefault(logger)
	logger.Info("starting dvrpc-gateway",
		"network", cfg.Ethereum.Network,
		"chain_id", cfg.Ethereum.ChainID,
		"consensus_enabled", cfg.Consensus.Enabled,
	)

	uc := upstream.New(cfg.Ethereum.ExecutionRPC, 10*time.Second)

	var cons *consensus.Adapter
	lm := node.NewLifecycleManager(node.DefaultLifecycleConfig())

	if cfg.Consensus.Enabled {
		cons = consensus.New()
		poller := consensus.NewPoller(cons, uc, 12*time.Second)
		if err := lm.Register(poller, 10); err != nil {
			return err
		}
	}

	api := rpc.NewAPI(uc, cons, cfg.Ethereum.ChainID, cfg.Consensus.Enabled)
	srv := rpc.NewServer(api, rpc.NewHealthHandler(cons), []string{"*"})
	srv.Listen(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
	if err := lm.Register(srv, 20); err != nil {
		return err
	}

	if errs := lm.StartAll(); len(errs) != 0 {
		for _, e := range errs {
			logger.Error("startup failure", "error", e)
		}
		return fmt.Errorf("startup: %d service(s) failed", len(errs))
	}
	logger.Info("dvrpc-gateway ready", "addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	if errs := lm.StopAll(); len(errs) != 0 {
		for _, e := range errs {
			logger.Error("shutdown error", "error", e)
		}
		return fmt.Errorf("shutdown: %d service(s) failed", len(errs))
	}
	logger.Info("shutdown complete")
	return nil
}
