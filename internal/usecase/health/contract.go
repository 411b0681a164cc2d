package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// DocumentCounter reports the size of the served collection.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}
