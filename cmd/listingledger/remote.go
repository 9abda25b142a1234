package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jmerrifield20/listingledger/internal/chain"
	"github.com/jmerrifield20/listingledger/internal/render"
	"github.com/jmerrifield20/listingledger/pkg/client"
	"github.com/spf13/cobra"
)

var (
	serverURL    string
	remoteFormat string
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Query or extend a running listingledger server",
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "listingledger server URL")
	cmd.PersistentFlags().StringVar(&remoteFormat, "format", render.FormatText, "record output format: "+strings.Join(render.Formats(), ", "))

	cmd.AddCommand(newRemoteOverviewCmd())
	cmd.AddCommand(newRemoteVerifyCmd())
	cmd.AddCommand(newRemoteListCmd())
	cmd.AddCommand(newRemoteGetCmd())
	cmd.AddCommand(newRemoteAppendCmd())
	return cmd
}

func remoteClient() (*client.Client, error) {
	return client.New(serverURL)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newRemoteOverviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show the chain length and root hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remoteClient()
			if err != nil {
				return err
			}
			ov, err := c.Overview(cmdContext(cmd))
			if err != nil {
				return fmt.Errorf("overview: %w", err)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Records:\t%d\n", ov.Records)
			fmt.Fprintf(w, "Root:\t%s\n", ov.Root)
			return w.Flush()
		},
	}
}

func newRemoteVerifyCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check chain integrity on the server, or locally with --local",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remoteClient()
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)
			out := cmd.OutOrStdout()

			if local {
				records, err := c.AllRecords(ctx)
				if err != nil {
					return fmt.Errorf("fetch records: %w", err)
				}
				if err := client.VerifyLocally(records); err != nil {
					return fmt.Errorf("chain broken: %w", err)
				}
				fmt.Fprintf(out, "✓ chain intact (%d records, verified locally)\n", len(records))
				return nil
			}

			res, err := c.Verify(ctx)
			if err != nil {
				return fmt.Errorf("verify: %w", err)
			}
			if !res.Valid {
				if res.Position != nil {
					return fmt.Errorf("chain broken at record %d: %s", *res.Position, res.Error)
				}
				return fmt.Errorf("chain broken: %s", res.Error)
			}
			fmt.Fprintf(out, "✓ chain intact (root %s)\n", res.Root)
			return nil
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "download every record and verify client side")
	return cmd
}

func newRemoteListCmd() *cobra.Command {
	var (
		offset, limit int
		all           bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records in chain order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remoteClient()
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)

			var records []chain.Record
			if all {
				records, err = c.AllRecords(ctx)
			} else {
				var page *client.Page
				page, err = c.Records(ctx, offset, limit)
				if page != nil {
					records = page.Records
				}
			}
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}
			return render.Write(cmd.OutOrStdout(), remoteFormat, records)
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "first position to list")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum records to list")
	cmd.Flags().BoolVar(&all, "all", false, "list the whole chain")
	return cmd
}

func newRemoteGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <position>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[0])
			if err != nil || pos < 0 {
				return fmt.Errorf("position must be a non-negative integer, got %q", args[0])
			}
			c, err := remoteClient()
			if err != nil {
				return err
			}
			rec, err := c.Record(cmdContext(cmd), pos)
			if err != nil {
				return fmt.Errorf("get record %d: %w", pos, err)
			}
			return render.Write(cmd.OutOrStdout(), remoteFormat, []chain.Record{*rec})
		},
	}
}

func newRemoteAppendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "append <payload> [payload...]",
		Short: "Append one record per payload",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remoteClient()
			if err != nil {
				return err
			}
			ctx := cmdContext(cmd)

			appended := make([]chain.Record, 0, len(args))
			for _, p := range args {
				rec, err := c.Append(ctx, p)
				if err != nil {
					return fmt.Errorf("append %q: %w", p, err)
				}
				appended = append(appended, *rec)
			}
			return render.Write(cmd.OutOrStdout(), remoteFormat, appended)
		},
	}
}
