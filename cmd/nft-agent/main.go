// nft-agent mints, transfers and queries tokens on an NFT registry node.
//
// Usage:
//
//	nft-agent [--config file] [--env dir] <command> [flags]
//
// Every mutating command signs a transaction with the configured private key,
// submits it and waits for its receipt. A rejected transaction exits with
// status 2 and reports the registry error kind.
package main

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/pflag"

	"github.com/feral-file/nft-registry/internal/adapter"
	"github.com/feral-file/nft-registry/internal/agent"
	"github.com/feral-file/nft-registry/internal/config"
	"github.com/feral-file/nft-registry/internal/ledger"
	"github.com/feral-file/nft-registry/internal/logger"
)

// exitRejected is the exit status of a transaction rejected by the registry
const exitRejected = 2

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)

		var txErr *agent.TxError
		if errors.As(err, &txErr) {
			os.Exit(exitRejected)
		}
		os.Exit(1)
	}
}

func run(argv []string) error {
	var configFile, envPath string

	flagSet := pflag.NewFlagSet("nft-agent", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configFile, "config", "", "path to configuration file")
	flagSet.StringVar(&envPath, "env", "config/", "path to environment files")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(flagSet)
		return nil
	}

	name := flagSet.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q, run nft-agent --help", name)
	}

	cfg, err := config.LoadAgentConfig(configFile, envPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Initialize(logger.Config{Debug: cfg.Debug, SentryDSN: cfg.SentryDSN}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	env, err := newEnv(cfg)
	if err != nil {
		return err
	}

	return cmd.run(ctx, env, flagSet.Args()[1:])
}

// env carries what every command needs
type env struct {
	cfg      *config.AgentConfig
	client   agent.Client
	explorer agent.Explorer
	json     adapter.JSON
	out      *os.File
}

func newEnv(cfg *config.AgentConfig) (*env, error) {
	key, err := parsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}

	jsonAdapter := adapter.NewJSON()
	client, err := agent.NewClient(agent.Config{
		NodeURL:             cfg.NodeURL,
		ChainID:             cfg.ChainID,
		PrivateKey:          key,
		AccessToken:         cfg.AccessToken,
		PollInitialInterval: cfg.PollInitialInterval,
		PollMaxInterval:     cfg.PollMaxInterval,
		ReceiptTimeout:      cfg.ReceiptTimeout,
	}, adapter.NewHTTPClient(cfg.RequestTimeout), ledger.NewTxCodec(jsonAdapter, adapter.NewJCS()), jsonAdapter, adapter.NewClock())
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:      cfg,
		client:   client,
		explorer: agent.NewExplorer(cfg.ExplorerURL),
		json:     jsonAdapter,
		out:      os.Stdout,
	}, nil
}

func parsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	if raw == "" {
		return nil, fmt.Errorf("private key is not configured, set NFT_REGISTRY_PRIVATE_KEY")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `nft-agent mints, transfers and queries tokens on an NFT registry node.

Usage:
  nft-agent [global flags] <command> [flags]

Commands:
`)
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(os.Stderr, "\nGlobal flags:\n%s", flagSet.FlagUsages())
	fmt.Fprintf(os.Stderr, "\nRun nft-agent <command> --help for the flags of a command.\n")
}
