package clients

import (
	"context"
)

// Agent answers one user input within a session.
type Agent interface {
	Invoke(ctx context.Context, sessionID, input string) (string, error)
}

type Interface interface {
	Run(ctx context.Context) error
}
