// Package pagination fetches pages of aggregated cards from the sample
// endpoint, one at a time or as a parallel batch.
//
// A page number maps to an upstream offset through Offset; the endpoint
// decides the page size, so PageSize must match it for page numbers to line
// up with the listing.
//
// Example usage:
//
//	client, _ := pagination.NewClient(pagination.ClientConfig{BaseURL: "http://localhost:8080"})
//	cards, err := client.FetchPage(ctx, 2) // GET /api/sample?offset=20
//
//	bf := pagination.NewBatchFetcher[aggregate.Card](client, pagination.DefaultConfig())
//	pages, err := bf.FetchPages(ctx, 1, 10)
//	all := pagination.Flatten(pages, 1, 10)
package pagination
