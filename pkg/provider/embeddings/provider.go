// Package embeddings defines the Provider interface for vector embedding
// backends.
//
// An embeddings provider maps text to a dense float32 vector. The memory
// layer embeds remembered facts and conversation turns on write and embeds
// the user's query on recall, ranking stored entries by vector distance.
//
// Implementations must be safe for concurrent use.
package embeddings

import "context"

// Provider is the abstraction over a text-embedding backend.
//
// All vectors returned by a single Provider instance share the same
// dimensionality (returned by Dimensions). Vectors from different providers
// or models must not be compared against each other.
type Provider interface {
	// Embed computes the embedding vector for text. The returned slice has
	// length Dimensions(). Text is passed to the model verbatim; any
	// model-specific prefixing is the caller's responsibility.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the fixed length of every vector produced by this
	// provider. Determined by the underlying model and constant for the
	// lifetime of the instance.
	Dimensions() int

	// ModelID returns the model identifier used for embeddings, for logging
	// and for verifying that stored vectors match the active model.
	ModelID() string
}
