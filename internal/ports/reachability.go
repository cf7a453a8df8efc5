package ports

import "context"

type Reachability interface {
	IsOnline(ctx context.Context) (bool, error)
}

// ConnectivityListener is called on every offline/online transition.
type ConnectivityListener func(online bool)
