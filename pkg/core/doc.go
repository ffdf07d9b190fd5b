// Package core provides the foundational types shared by the SDK packages.
//
// It defines how experiments are addressed on the Burn Central service and
// the configuration error type returned when a client or reference is
// invalid. Transport-level errors live in the transport package.
//
// Example usage:
//
//	import "github.com/burn-central/go-sdk/pkg/core"
//
//	ref := core.ExperimentRef{Owner: "tracel", Project: "mnist", Number: 3}
//	if err := ref.Validate(); err != nil {
//		var configErr *core.ConfigError
//		if errors.As(err, &configErr) {
//			log.Fatalf("bad %s: %v", configErr.Field, err)
//		}
//	}
package core
