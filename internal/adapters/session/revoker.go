package session

import (
	"context"
	"time"
)

// Revoker tracks session ids that were ended before their token expired.
// Entries only need to live until the token would have expired anyway.
type Revoker interface {
	Revoke(ctx context.Context, sid string, until time.Time) error
	Revoked(ctx context.Context, sid string) (bool, error)
}
