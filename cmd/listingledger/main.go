package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/jmerrifield20/listingledger/internal/config"
	"github.com/jmerrifield20/listingledger/internal/logging"
	"github.com/jmerrifield20/listingledger/internal/render"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// version is overridden at build time via -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile  string
	logLevel string

	conf   *config.Config
	logger *zap.Logger
)

// sampleListings are the records the demo command appends.
var sampleListings = []string{
	"Listing 1: apartment, Gangnam-gu, Seoul, price 1,000,000,000 KRW",
	"Listing 2: officetel, Mapo-gu, Seoul, price 500,000,000 KRW",
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "listingledger",
		Short: "Tamper-evident ledger of real-estate listings",
		Long: `listingledger keeps real-estate listings in an append-only chain where
every record carries the SHA-256 hash of its predecessor.

Chains live in memory: build and demo construct a fresh chain per run,
serve keeps one chain for the lifetime of the server process.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if logLevel != "" {
				c.Log.Level = logLevel
			}
			l, err := logging.New(c.Log)
			if err != nil {
				return err
			}
			conf, logger = c, l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default configs/listingledger.yaml or ./listingledger.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override: debug, info, warn, error")

	root.AddCommand(newDemoCmd())
	root.AddCommand(newBuildCmd())
	root.AddCommand(newHashCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newRemoteCmd())
	root.AddCommand(newListingCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// ── demo ─────────────────────────────────────────────────────────────────────

func newDemoCmd() *cobra.Command {
	var format, date string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build a chain from two sample listings and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clock, err := clockFor(date)
			if err != nil {
				return err
			}
			records, err := buildChain(cmd.Context(), clock, sampleListings)
			if err != nil {
				return err
			}
			return render.Write(cmd.OutOrStdout(), format, records)
		},
	}
	cmd.Flags().StringVar(&format, "format", render.FormatText, "output format: "+strings.Join(render.Formats(), ", "))
	cmd.Flags().StringVar(&date, "date", "", "stamp every record with this YYYY-MM-DD date")
	return cmd
}

// ── build ────────────────────────────────────────────────────────────────────

func newBuildCmd() *cobra.Command {
	var (
		format, date, file string
		verify             bool
	)

	cmd := &cobra.Command{
		Use:   "build [payload...]",
		Short: "Build a chain from payload arguments or lines of a file",
		Long: `build starts a fresh chain, appends each payload in order and prints
the result. Payloads come from the arguments, or one per line from --file
(use "-" for stdin).

  listingledger build "Listing 1: villa, Jeju" "Listing 2: hanok, Jongno-gu"
  listingledger build --file listings.txt --format json --verify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payloads := args
			if file != "" {
				if len(args) > 0 {
					return fmt.Errorf("use either payload arguments or --file, not both")
				}
				lines, err := readPayloads(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				payloads = lines
			}

			clock, err := clockFor(date)
			if err != nil {
				return err
			}
			records, err := buildChain(cmd.Context(), clock, payloads)
			if err != nil {
				return err
			}

			if verify {
				if err := chain.VerifyRecords(records); err != nil {
					return fmt.Errorf("verify chain: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "chain verified: %d records\n", len(records))
			}
			return render.Write(cmd.OutOrStdout(), format, records)
		},
	}
	cmd.Flags().StringVar(&format, "format", render.FormatText, "output format: "+strings.Join(render.Formats(), ", "))
	cmd.Flags().StringVar(&date, "date", "", "stamp every record with this YYYY-MM-DD date")
	cmd.Flags().StringVar(&file, "file", "", `read payloads from a file, one per line ("-" for stdin)`)
	cmd.Flags().BoolVar(&verify, "verify", false, "verify the built chain before printing")
	return cmd
}

// ── hash ─────────────────────────────────────────────────────────────────────

func newHashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash <position> <timestamp> <payload> <previous_hash>",
		Short: "Print the identity hash of a record's fields",
		Long: `hash computes SHA-256(position || timestamp || payload || previous_hash)
exactly as the ledger does. The genesis record:

  listingledger hash 0 2025-03-21 "Genesis Block" 0`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil || pos < 0 {
				return fmt.Errorf("position must be a non-negative integer, got %q", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), chain.CalculateHash(pos, args[1], args[2], args[3]))
			return nil
		},
	}
}

// ── version ──────────────────────────────────────────────────────────────────

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the listingledger version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "listingledger %s\n", version)
		},
	}
}

// ── helpers ──────────────────────────────────────────────────────────────────

// clockFor returns a fixed clock for a --date flag, or the configured clock.
func clockFor(date string) (chain.Clock, error) {
	if date == "" {
		return conf.NewClock(), nil
	}
	if _, err := time.Parse(chain.DateLayout, date); err != nil {
		return nil, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return chain.FixedClock(date), nil
}

func buildChain(ctx context.Context, clock chain.Clock, payloads []string) ([]chain.Record, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ledger := chain.New(chain.WithClock(clock))
	for _, p := range payloads {
		rec, err := ledger.Append(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("append: %w", err)
		}
		logger.Debug("record appended", zap.Int("position", rec.Position), zap.String("hash", rec.Hash))
	}
	return ledger.Records(ctx)
}

// readPayloads reads one payload per line from path, or from stdin for "-".
func readPayloads(stdin io.Reader, path string) ([]string, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open payload file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read payloads: %w", err)
	}
	return lines, nil
}
