// Package client provides the entry point for talking to a Burn Central server.
//
// A Client holds the API base URL and the session cookie obtained at login.
// Its main job in this SDK is opening experiment-run streams: it derives the
// run's WebSocket URL from the HTTP base URL (http becomes ws, https becomes
// wss) and connects a transport.WebSocket that carries the session cookie on
// the handshake.
//
// Example usage:
//
//	import "github.com/burn-central/go-sdk/pkg/client"
//
//	c, err := client.New(client.Config{
//		BaseURL:       "https://central.example.com/api/",
//		SessionCookie: cookie,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ref := core.ExperimentRef{Owner: "tracel", Project: "mnist", Number: 3}
//	run, err := c.OpenExperimentRun(ctx, ref)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer run.Release()
//
//	if err := run.Send(ctx, event); err != nil {
//		log.Fatal(err)
//	}
package client
