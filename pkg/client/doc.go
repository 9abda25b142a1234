// Package client is the Go SDK for a listingledger HTTP server.
//
// Create a client and append a listing:
//
//	c, err := client.New("http://localhost:8080")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rec, err := c.Append(ctx, "Listing 3: detached house, Seongbuk-gu, Seoul")
//
// Read the chain back and check it without trusting the server's own
// verification:
//
//	records, err := c.AllRecords(ctx)
//	if err := client.VerifyLocally(records); err != nil {
//	    // the server returned a broken chain
//	}
//
// Server-side verification is a single call:
//
//	res, err := c.Verify(ctx)
//	fmt.Println(res.Valid, res.Position)
//
// Structured listings are keyed by the SHA-256 of their address; adding the
// same address again extends its history:
//
//	res, err := c.AddListing(ctx, client.AddListingRequest{
//	    Address: "Teheran-ro 152, Gangnam-gu, Seoul",
//	    Owner:   "Kim",
//	    Price:   "1000000000",
//	})
//	history, err := c.ListingHistory(ctx, res.Listing.ID)
package client
