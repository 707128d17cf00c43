package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ligun0805/mixer-dashboard/internal/config"
	core "github.com/ligun0805/mixer-dashboard/internal/mixercore"
	"github.com/ligun0805/mixer-dashboard/internal/quickaddr"
)

var log = logrus.New()

// app is what every subcommand needs after setup.
type app struct {
	cfg      config.Settings
	ec       *ethclient.Client
	contract *core.Contract
	session  *core.Session
	quick    quickaddr.Store
	user     common.Address
}

var (
	flagAddress string
	flagTimeout time.Duration
)

func main() {
	config.LoadDotEnv()

	root := &cobra.Command{
		Use:           "mixercli",
		Short:         "Deposit, withdraw and inspect your mixer activity",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flagAddress, "address", "", "view this address instead of the PRIVATE_KEY account (read-only)")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 5*time.Minute, "overall timeout for one command")

	root.AddCommand(
		statusCmd(),
		historyCmd(),
		depositCmd(),
		withdrawCmd(),
		quickWithdrawCmd(),
		setQuickCmd(),
		previewCmd(),
		netCmd(),
		metricsCmd(),
	)

	if err := root.Execute(); err != nil {
		die(err.Error())
	}
}

// setup loads config, dials the node and resolves which address is viewed.
// needKey asks for the private key on the terminal when PRIVATE_KEY is empty.
func setup(ctx context.Context, needKey bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	initLogger(cfg.LogLevel)
	printEnv(cfg)

	a := &app{cfg: cfg, quick: quickaddr.NewFileStore(cfg.QuickStorePath)}

	var key *ecdsa.PrivateKey
	pk := cfg.PrivateKeyHex
	if pk == "" && needKey {
		pk = readPassword("Private key: ")
	}
	if pk != "" {
		key, err = core.ParsePrivateKey(pk)
		if err != nil {
			return nil, err
		}
	}

	switch {
	case flagAddress != "":
		if needKey {
			return nil, fmt.Errorf("--address is read-only; unset it to send transactions")
		}
		a.user, err = core.ParseAddress(flagAddress)
		if err != nil {
			return nil, err
		}
	case key != nil:
		a.user = crypto.PubkeyToAddress(key.PublicKey)
	default:
		return nil, fmt.Errorf("set PRIVATE_KEY or pass --address")
	}

	log.WithField("rpc", cfg.RPCURL).Debug("dialing node")
	a.ec, err = ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	a.contract = core.NewContract(a.ec, cfg.ChainIDBig(), cfg.Mixer(), cfg.Token())
	a.contract.Logf = log.Infof
	if key != nil {
		a.contract.WithSigner(key)
	}

	a.session = &core.Session{
		Chain:   a.contract,
		Source:  core.NewEthSource(a.ec, cfg.RPCRetries),
		ChainID: cfg.ChainIDBig(),
		Scan: core.ScanOptions{
			Contract:    cfg.Mixer(),
			FromBlock:   cfg.FromBlock,
			ChunkBlocks: cfg.LogChunkBlocks,
			Concurrency: cfg.LookupConcurrency,
		},
		Logf: log.Debugf,
	}
	if key != nil {
		a.session.Tx = a.contract
	}
	return a, nil
}

func (a *app) close() {
	if a != nil && a.ec != nil {
		a.ec.Close()
	}
}

func initLogger(level string) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05"})
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
}

// withApp runs fn with a connected app under the command timeout.
func withApp(needKey bool, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), flagTimeout)
	defer cancel()
	a, err := setup(ctx, needKey)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(ctx, a)
}
