package ports

import "context"

type IdentityResolver interface {
	ResolveMemberID(ctx context.Context) (int, error)
}
