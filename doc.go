// Package notefold is a client SDK for collaborative page editing. It keeps
// a local cache of pages and their blocks consistent with a server over two
// boundaries: an HTTP resource API for reads and writes, and a WebSocket
// gateway that broadcasts peers' edits in realtime.
//
// A Client is assembled from configuration and exposes its state through
// observable refs:
//
//	cfg := config.FromEnv()
//	client := notefold.New(cfg, notefold.Options{})
//	client.Connect()
//	defer client.Close()
//
//	client.Blocks.Blocks.Subscribe(func(blocks []models.Block) {
//	    render(blocks)
//	})
//
//	page, err := client.OpenPage(ctx, 42)
//
// Local edits are optimistic: the store applies the server's canonical
// response to its cache and announces the change on the gateway so peers
// converge. Remote notifications carry only block ids; the store reconciles
// them with targeted fetches.
package notefold
