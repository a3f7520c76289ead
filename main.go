package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bcdannyboy/installment/compare"
	"github.com/bcdannyboy/installment/pricers"
)

// parityInstallments is the number of payment dates of the parity contracts.
const parityInstallments = 4

func main() {
	cfg, err := compare.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	if cfg.History != "" {
		slog.Info("volatility estimated from history", "file", cfg.History, "estimator", cfg.Estimator, "vola", cfg.Vola)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	options, err := compare.Grid(cfg)
	if err != nil {
		log.Fatal(err)
	}
	engines := compare.DefaultEngines(cfg)

	fmt.Printf("Pricing %d continuous-installment calls: K=%.2f r=%.4f d=%.4f vola=%.2f T=%.2f\n",
		len(options), cfg.Strike, cfg.Rate, cfg.Dividend, cfg.Vola, cfg.Maturity)
	fmt.Printf("Using %d workers\n", cfg.Workers)

	rows, err := compare.NewSweeper(cfg, os.Stderr).Run(ctx, engines, options)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\n%8s %6s", "S", "q")
	for _, e := range engines {
		fmt.Printf(" %14s", e.Name)
	}
	fmt.Printf(" %9s\n", "spread")
	for _, row := range rows {
		fmt.Printf("%8.2f %6.2f", row.Option.S, row.Option.Q)
		for _, q := range row.Quotes {
			switch {
			case q.Skipped:
				fmt.Printf(" %14s", "-")
			case q.Err != nil:
				fmt.Printf(" %14s", "error")
			default:
				fmt.Printf(" %14.4f", q.Price)
			}
		}
		fmt.Printf(" %8.3f%%\n", 100*compare.Agreement(row))
	}

	parityEngines := []compare.Engine{
		{Name: "discrete", Pricer: pricers.NewDiscrete()},
		{Name: "fdm", Pricer: pricers.NewFDM()},
		{Name: "binomial", Pricer: pricers.NewBinomial()},
	}
	var checks []compare.ParityCheck
	fmt.Printf("\nPut-call-installment parity, %d dates, no dividends\n", parityInstallments)
	for _, S := range cfg.Spots {
		call, err := compare.InterestCall(S, cfg.Strike, cfg.Rate, 0, cfg.Vola, cfg.Maturity, parityInstallments)
		if err != nil {
			log.Fatal(err)
		}
		for _, e := range parityEngines {
			check, err := compare.CheckParity(e.Name, e.Pricer, call)
			if err != nil {
				slog.Warn("parity check failed", "engine", e.Name, "spot", S, "err", err)
				continue
			}
			slog.Info("parity", "engine", e.Name, "spot", S, "residual", check.Residual)
			fmt.Printf("%10s S=%7.2f call=%9.4f put=%9.4f residual=% .2e\n", e.Name, S, check.Call, check.Put, check.Residual)
			checks = append(checks, check)
		}
	}

	if cfg.Report == "" {
		return
	}
	f, err := os.Create(cfg.Report)
	if err != nil {
		log.Fatalf("Error creating %s: %v", cfg.Report, err)
	}
	defer f.Close()
	if err := compare.WriteReport(f, compare.NewReport(cfg, engines, rows, checks)); err != nil {
		log.Fatalf("Error writing %s: %v", cfg.Report, err)
	}
	fmt.Printf("\nSuccessfully wrote %d rows to %s\n", len(rows), cfg.Report)
}
