package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmerrifield20/listingledger/internal/listing"
	"github.com/jmerrifield20/listingledger/internal/render"
	"github.com/jmerrifield20/listingledger/pkg/client"
	"github.com/spf13/cobra"
)

var listingFormat string

func newListingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listing",
		Short: "Add and inspect structured listings on a running server",
		Long: `A listing is identified by the SHA-256 of its address. Adding the same
address again appends a new record and extends the listing's price and owner
history; nothing is overwritten.`,
	}
	cmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "listingledger server URL")
	cmd.PersistentFlags().StringVar(&listingFormat, "format", render.FormatText, "output format: "+strings.Join(render.Formats(), ", "))

	cmd.AddCommand(newListingIDCmd())
	cmd.AddCommand(newListingAddCmd())
	cmd.AddCommand(newListingListCmd())
	cmd.AddCommand(newListingGetCmd())
	cmd.AddCommand(newListingHistoryCmd())
	return cmd
}

func newListingIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "id <address>",
		Short: "Print the listing ID derived from an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), listing.PropertyID(strings.TrimSpace(args[0])))
			return err
		},
	}
}

func newListingAddCmd() *cobra.Command {
	var req client.AddListingRequest

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a listing event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remoteClient()
			if err != nil {
				return err
			}
			res, err := c.AddListing(cmdContext(cmd), req)
			if err != nil {
				return fmt.Errorf("add listing: %w", err)
			}
			return render.WriteListings(cmd.OutOrStdout(), listingFormat, []listing.Listing{res.Listing})
		},
	}
	cmd.Flags().StringVar(&req.Address, "address", "", "property address (required)")
	cmd.Flags().StringVar(&req.Owner, "owner", "", "current owner (required)")
	cmd.Flags().StringVar(&req.Price, "price", "", "asking price (required)")
	_ = cmd.MarkFlagRequired("address")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newListingListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every listing in order of first appearance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := remoteClient()
			if err != nil {
				return err
			}
			all, err := c.Listings(cmdContext(cmd))
			if err != nil {
				return fmt.Errorf("list listings: %w", err)
			}
			return render.WriteListings(cmd.OutOrStdout(), listingFormat, all)
		},
	}
}

func newListingGetCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show the current state of one listing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := listingID(args, address)
			if err != nil {
				return err
			}
			c, err := remoteClient()
			if err != nil {
				return err
			}
			l, err := c.Listing(cmdContext(cmd), id)
			if err != nil {
				return fmt.Errorf("get listing %s: %w", id, err)
			}
			return render.WriteListings(cmd.OutOrStdout(), listingFormat, []listing.Listing{*l})
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "look the listing up by address instead of ID")
	return cmd
}

func newListingHistoryCmd() *cobra.Command {
	var address string

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "Show every recorded event of one listing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := listingID(args, address)
			if err != nil {
				return err
			}
			c, err := remoteClient()
			if err != nil {
				return err
			}
			events, err := c.ListingHistory(cmdContext(cmd), id)
			if err != nil {
				return fmt.Errorf("listing history %s: %w", id, err)
			}
			return render.WriteHistory(cmd.OutOrStdout(), listingFormat, events)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "look the listing up by address instead of ID")
	return cmd
}

// listingID takes the ID argument, or derives it from --address.
func listingID(args []string, address string) (string, error) {
	switch {
	case len(args) == 1 && address != "":
		return "", errors.New("pass either an ID or --address, not both")
	case len(args) == 1:
		return args[0], nil
	case strings.TrimSpace(address) != "":
		return listing.PropertyID(strings.TrimSpace(address)), nil
	default:
		return "", errors.New("a listing ID or --address is required")
	}
}
