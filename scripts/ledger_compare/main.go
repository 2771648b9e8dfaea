package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/datecheck-bot/internal/repository"
	"github.com/noah-isme/datecheck-bot/internal/service"
	"github.com/noah-isme/datecheck-bot/pkg/config"
)

// report compares the booked dates of two ledgers.
type report struct {
	OnlyPrimary []string
	OnlyShadow  []string
	Malformed   map[string][]string
	Shared      int
}

func (r report) breaking() bool {
	return len(r.OnlyPrimary) > 0 || len(r.OnlyShadow) > 0
}

func main() {
	var (
		shadowBackend string
		workbookPath  string
		timeout       time.Duration
	)

	flag.StringVar(&shadowBackend, "shadow", config.LedgerPostgres, "Backend to compare against the configured LEDGER_BACKEND")
	flag.StringVar(&workbookPath, "workbook", "", "Workbook path for -shadow=xlsx, overrides LEDGER_WORKBOOK_PATH")
	flag.DurationVar(&timeout, "timeout", 15*time.Second, "Timeout per ledger read")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shadowCfg := cfg.Ledger
	shadowCfg.Backend = shadowBackend
	if workbookPath != "" {
		shadowCfg.WorkbookPath = workbookPath
	}
	if shadowCfg.Backend == cfg.Ledger.Backend {
		log.Fatalf("shadow backend must differ from %s", cfg.Ledger.Backend)
	}

	ctx := context.Background()
	primary, err := readLedger(ctx, cfg.Ledger, timeout)
	if err != nil {
		log.Fatalf("primary ledger (%s): %v", cfg.Ledger.Backend, err)
	}
	shadow, err := readLedger(ctx, shadowCfg, timeout)
	if err != nil {
		log.Fatalf("shadow ledger (%s): %v", shadowCfg.Backend, err)
	}

	res := compare(map[string][]string{cfg.Ledger.Backend: primary, shadowCfg.Backend: shadow}, cfg.Ledger.Backend, shadowCfg.Backend)
	printReport(os.Stdout, res, cfg.Ledger.Backend, shadowCfg.Backend)
	if res.breaking() {
		os.Exit(1)
	}
}

func readLedger(ctx context.Context, cfg config.LedgerConfig, timeout time.Duration) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ledger, err := repository.NewLedger(ctx, cfg, zap.NewNop())
	if err != nil {
		return nil, err
	}
	defer ledger.Close() //nolint:errcheck
	return ledger.BookedDates(ctx)
}

func compare(entries map[string][]string, primary, shadow string) report {
	res := report{Malformed: map[string][]string{}}
	primarySet := normalise(entries[primary], func(raw string) { res.Malformed[primary] = append(res.Malformed[primary], raw) })
	shadowSet := normalise(entries[shadow], func(raw string) { res.Malformed[shadow] = append(res.Malformed[shadow], raw) })

	for date := range primarySet {
		if _, ok := shadowSet[date]; ok {
			res.Shared++
			continue
		}
		res.OnlyPrimary = append(res.OnlyPrimary, date)
	}
	for date := range shadowSet {
		if _, ok := primarySet[date]; !ok {
			res.OnlyShadow = append(res.OnlyShadow, date)
		}
	}
	sort.Strings(res.OnlyPrimary)
	sort.Strings(res.OnlyShadow)
	return res
}

// normalise keeps entries the bot can match. Anything else is reported, since
// no user input will ever equal it.
func normalise(entries []string, malformed func(string)) map[string]struct{} {
	set := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		trimmed := strings.TrimSpace(entry)
		if trimmed == "" {
			continue
		}
		date, err := service.ParseDate(trimmed)
		if err != nil || date.String() != trimmed {
			malformed(trimmed)
			continue
		}
		set[trimmed] = struct{}{}
	}
	return set
}

func printReport(w io.Writer, res report, primary, shadow string) {
	fmt.Fprintln(w, "Ledger Compare Report")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintf(w, "Shared dates: %d\n", res.Shared)
	for _, date := range res.OnlyPrimary {
		fmt.Fprintf(w, "[DIFF] %s only in %s\n", date, primary)
	}
	for _, date := range res.OnlyShadow {
		fmt.Fprintf(w, "[DIFF] %s only in %s\n", date, shadow)
	}
	for _, backend := range []string{primary, shadow} {
		for _, raw := range res.Malformed[backend] {
			fmt.Fprintf(w, "[WARN] %s: unmatchable entry %q\n", backend, raw)
		}
	}
	fmt.Fprintf(w, "Breaking diffs: %d\n", len(res.OnlyPrimary)+len(res.OnlyShadow))
}
