package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ligun0805/mixer-dashboard/internal/metrics"
	core "github.com/ligun0805/mixer-dashboard/internal/mixercore"
	"github.com/ligun0805/mixer-dashboard/internal/quickaddr"
)

var flagYes bool

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show balances, the 24h withdraw timer and the deposit lock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(false, func(ctx context.Context, a *app) error {
				snap, err := a.session.Refresh(ctx, a.user)
				if err != nil {
					return err
				}
				printSnapshot(cmd.OutOrStdout(), a.cfg.TokenSymbol, snap)
				return nil
			})
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "history",
		Short: "List your deposits and withdrawals, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(false, func(ctx context.Context, a *app) error {
				snap, err := a.session.Refresh(ctx, a.user)
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), a.cfg.TokenSymbol, snap, limit)
				return nil
			})
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries (0 = all)")
	return c
}

func depositCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "deposit AMOUNT",
		Short: "Approve and deposit AMOUNT tokens",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(ctx context.Context, a *app) error {
				snap, err := a.session.Refresh(ctx, a.user)
				if err != nil {
					return err
				}
				if snap.Activity.DepositLocked {
					fmt.Fprintln(cmd.OutOrStdout(), snap.Activity.DepositLockMessage)
					return core.ErrDepositLocked
				}
				if !confirm(fmt.Sprintf("Deposit %s %s from %s?", args[0], a.cfg.TokenSymbol, a.user.Hex())) {
					return errors.New("cancelled")
				}
				snap, err = a.session.Deposit(ctx, snap, args[0])
				if err != nil {
					return err
				}
				log.Info("deposit confirmed")
				printSnapshot(cmd.OutOrStdout(), a.cfg.TokenSymbol, snap)
				return nil
			})
		},
	}
	c.Flags().BoolVarP(&flagYes, "yes", "y", false, "do not ask for confirmation")
	return c
}

func withdrawCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "withdraw RECIPIENT AMOUNT",
		Short: "Withdraw AMOUNT tokens to RECIPIENT (0.1% fee)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// address first, before any RPC traffic
			if _, err := core.ParseAddress(args[0]); err != nil {
				return err
			}
			return withApp(true, func(ctx context.Context, a *app) error {
				return runWithdraw(ctx, cmd, a, args[0], args[1])
			})
		},
	}
	c.Flags().BoolVarP(&flagYes, "yes", "y", false, "do not ask for confirmation")
	return c
}

func quickWithdrawCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "quick-withdraw AMOUNT",
		Short: "Withdraw AMOUNT tokens to the saved quick address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(true, func(ctx context.Context, a *app) error {
				to := a.quick.Get()
				if to == "" {
					return core.ErrNoQuickAddress
				}
				return runWithdraw(ctx, cmd, a, to, args[0])
			})
		},
	}
	c.Flags().BoolVarP(&flagYes, "yes", "y", false, "do not ask for confirmation")
	return c
}

func runWithdraw(ctx context.Context, cmd *cobra.Command, a *app, to, amount string) error {
	snap, err := a.session.Refresh(ctx, a.user)
	if err != nil {
		return err
	}
	p, err := core.PreviewWithdrawal(amount, to, snap.Activity.AvailableGross)
	if err != nil {
		return err
	}
	printPreview(cmd.OutOrStdout(), a.cfg.TokenSymbol, p)
	if !confirm("Send withdrawal?") {
		return errors.New("cancelled")
	}
	snap, err = a.session.Withdraw(ctx, snap, to, amount)
	if err != nil {
		return err
	}
	log.Info("withdrawal confirmed")
	printSnapshot(cmd.OutOrStdout(), a.cfg.TokenSymbol, snap)
	return nil
}

func setQuickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-quick ADDRESS",
		Short: "Save the quick withdrawal address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			saved, err := quickaddr.Save(quickaddr.NewFileStore(cfg.QuickStorePath), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Quick address set: %s\n", saved)
			return nil
		},
	}
}

func previewCmd() *cobra.Command {
	var to string
	c := &cobra.Command{
		Use:   "preview AMOUNT",
		Short: "Show the fee and net amount for a withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if to == "" {
				to = quickaddr.NewFileStore(cfg.QuickStorePath).Get()
			}
			if to == "" {
				return core.ErrNoQuickAddress
			}
			p, err := core.PreviewWithdrawal(args[0], to, nil)
			if err != nil {
				return err
			}
			printPreview(cmd.OutOrStdout(), cfg.TokenSymbol, p)
			return nil
		},
	}
	c.Flags().StringVar(&to, "to", "", "recipient (defaults to the quick address)")
	return c
}

func netCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "net",
		Short: "Show chain id, head block and gas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(false, func(ctx context.Context, a *app) error {
				return printNetwork(ctx, cmd.OutOrStdout(), a)
			})
		},
	}
}

func metricsCmd() *cobra.Command {
	var every time.Duration
	c := &cobra.Command{
		Use:   "metrics",
		Short: "Serve /metrics and refresh the account periodically",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if every <= 0 {
				return fmt.Errorf("--every must be positive, got %s", every)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			go func() {
				log.WithField("addr", cfg.MetricsAddr).Info("serving metrics")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.WithError(err).Error("metrics server")
					stop()
				}
			}()

			t := time.NewTicker(every)
			defer t.Stop()
			for {
				rctx, cancel := context.WithTimeout(ctx, every)
				if _, err := a.session.Refresh(rctx, a.user); err != nil {
					log.WithError(err).Warn("refresh failed")
				} else {
					log.Debug("refreshed")
				}
				cancel()
				select {
				case <-ctx.Done():
					shut, c2 := context.WithTimeout(context.Background(), 5*time.Second)
					defer c2()
					return srv.Shutdown(shut)
				case <-t.C:
				}
			}
		},
	}
	c.Flags().DurationVar(&every, "every", time.Minute, "refresh interval")
	return c
}
