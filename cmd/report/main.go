package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"coinflow/internal/config"
	"coinflow/internal/svc"
)

const queryTimeout = 30 * time.Second

var (
	configFile = flag.String("f", "etc/coinflow.yaml", "the config file")
	query      = flag.String("query", "dominance", "one of: prices | volatility | dominance | correlation")
	symbol     = flag.String("symbol", "", "symbol for the prices query")
	pair       = flag.String("pair", "", "comma separated pair for the correlation query, e.g. BTC,ETH")
	window     = flag.Int("window", 0, "trailing window in days (0 uses the configured default)")
	top        = flag.Int("top", 0, "result size for ranked queries (0 uses the configured default)")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	appCfg := config.MustLoad(*configFile)
	svcCtx := svc.NewServiceContext(*appCfg)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	var err error
	switch strings.ToLower(*query) {
	case "prices":
		err = reportPrices(ctx, svcCtx)
	case "volatility":
		err = reportVolatility(ctx, svcCtx)
	case "dominance":
		err = reportDominance(ctx, svcCtx)
	case "correlation":
		err = reportCorrelation(ctx, svcCtx)
	default:
		err = fmt.Errorf("unknown query %q", *query)
	}
	if err != nil {
		log.Printf("report failed: %v", err)
		os.Exit(1)
	}
}

func reportPrices(ctx context.Context, svcCtx *svc.ServiceContext) error {
	if *symbol == "" {
		return fmt.Errorf("prices query requires -symbol")
	}
	series, err := svcCtx.Analytics.RollingPrices(ctx, *symbol, *window)
	if err != nil {
		return err
	}

	fmt.Printf("%s daily closes (MA window %d)\n", series.Symbol, series.Window)
	fmt.Printf("%-12s %14s %14s %10s\n", "date", "close", "ma", "return%")
	for _, p := range series.Points {
		fmt.Printf("%-12s %14.4f %14s %10s\n",
			p.Day.Format("2006-01-02"), p.Price, optional(p.MovingAvg, "%.4f"), optional(p.Return, "%+.2f"))
	}
	return nil
}

func reportVolatility(ctx context.Context, svcCtx *svc.ServiceContext) error {
	ranking, err := svcCtx.Analytics.Volatility(ctx, *window, *top)
	if err != nil {
		return err
	}
	if len(ranking) == 0 {
		fmt.Println("no symbols with enough history")
		return nil
	}

	fmt.Printf("%-4s %-8s %14s %8s\n", "#", "symbol", "ann. vol", "samples")
	for i, r := range ranking {
		fmt.Printf("%-4d %-8s %13.2f%% %8d\n", i+1, r.Symbol, 100*r.Volatility, r.Samples)
	}
	return nil
}

func reportDominance(ctx context.Context, svcCtx *svc.ServiceContext) error {
	report, err := svcCtx.Analytics.Dominance(ctx, *top)
	if err != nil {
		return err
	}
	if report.Insufficient {
		fmt.Println("no market cap data yet")
		return nil
	}

	fmt.Printf("market cap dominance at %s (total %.0f)\n", report.Day.Format("2006-01-02"), report.TotalCap)
	fmt.Printf("%-8s %18s %8s\n", "symbol", "market cap", "share")
	for _, s := range report.Shares {
		fmt.Printf("%-8s %18.0f %7.2f%%\n", s.Symbol, s.MarketCap, 100*s.Share)
	}
	return nil
}

func reportCorrelation(ctx context.Context, svcCtx *svc.ServiceContext) error {
	parts := strings.Split(*pair, ",")
	if len(parts) != 2 {
		return fmt.Errorf("correlation query requires -pair BASE,QUOTE")
	}
	result, err := svcCtx.Analytics.Correlation(ctx, parts[0], parts[1], *window)
	if err != nil {
		return err
	}
	if result.Insufficient {
		fmt.Printf("%s/%s: not enough joint history in the last %d days (%d shared dates)\n",
			result.Base, result.Quote, result.Window, result.Samples)
		return nil
	}

	fmt.Printf("%s/%s return correlation over %d days: %.4f (%d shared dates)\n",
		result.Base, result.Quote, result.Window, result.Coefficient, result.Samples)
	return nil
}

func optional(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}
