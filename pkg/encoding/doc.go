// Package encoding provides message encoding and decoding for run streams.
//
// Messages exchanged over an experiment-run stream are opaque to the SDK: the
// transport only needs to turn a Go value into the payload of a single text
// frame and back again. A Codec captures that contract so the transport layer
// does not depend on a particular serialization library.
//
// The JSON codec is the only format the service accepts today and is the
// default used by the transport package.
//
// Example usage:
//
//	import "github.com/burn-central/go-sdk/pkg/encoding"
//
//	codec := encoding.NewJSON()
//
//	data, err := codec.Encode(map[string]int{"seq": 1})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var out map[string]int
//	if err := codec.Decode(data, &out); err != nil {
//		log.Fatal(err)
//	}
package encoding
