// Package sdk embeds the bookrec recommendation engine in another Go service.
//
// The client is constructed explicitly: catalog file, encoder and index
// connection are passed as options, there is no global state.
//
//	client, err := sdk.New(ctx,
//	    sdk.WithRedis("localhost:6379", ""),
//	    sdk.WithCatalogFile("data/books.csv"),
//	    sdk.WithEmbedder(myEncoder),
//	    sdk.WithVectorDimensions(384),
//	)
//	if err != nil { ... }
//	defer client.Close()
//
//	_, _ = client.Ingest(ctx)
//	res, err := client.Recommend(ctx, sdk.RecommendRequest{Title: "hobbit", TopK: 5})
//	if errors.Is(err, sdk.ErrBookNotFound) { ... }
package sdk
