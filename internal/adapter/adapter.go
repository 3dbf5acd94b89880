package adapter

import "context"

// Adapter represents a host that drives scheme handlers for incoming requests
type Adapter interface {
	// Start serves requests until ctx is done
	Start(ctx context.Context) error
}
