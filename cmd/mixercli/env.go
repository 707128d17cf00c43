package main

import (
	"context"
	"fmt"
	"io"

	"github.com/ligun0805/mixer-dashboard/internal/config"
	core "github.com/ligun0805/mixer-dashboard/internal/mixercore"
)

func loadConfig() (config.Settings, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	initLogger(cfg.LogLevel)
	printEnv(cfg)
	return cfg, nil
}

func printEnv(cfg config.Settings) {
	log.WithField("rpc", cfg.RPCURL).
		WithField("chain", cfg.ChainID).
		WithField("mixer", cfg.MixerAddress).
		WithField("token", cfg.TokenAddress).
		WithField("key", maskHex(cfg.PrivateKeyHex)).
		Debug("settings")
}

func printNetwork(ctx context.Context, w io.Writer, a *app) error {
	id, err := a.contract.ChainID(ctx)
	if err != nil {
		return err
	}
	ns, err := core.ReadNetwork(ctx, a.ec)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Chain ID:   %s", id)
	if id.Cmp(a.cfg.ChainIDBig()) != 0 {
		fmt.Fprintf(w, " (%s)", core.ErrWrongNetwork)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Head:       %d\n", ns.Head)
	fmt.Fprintf(w, "Base fee:   %s gwei\n", core.FormatGwei(ns.BaseFee))
	fmt.Fprintf(w, "Tip:        %s gwei\n", core.FormatGwei(ns.Tip))
	return nil
}
