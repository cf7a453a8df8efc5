package reachability

import (
	"context"
	"sync/atomic"

	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
)

// Static reports whatever was last set. It backs --offline and tests.
type Static struct {
	online atomic.Bool
}

var _ ports.Reachability = (*Static)(nil)

func NewStatic(online bool) *Static {
	s := &Static{}
	s.online.Store(online)
	return s
}

func (s *Static) Set(online bool) {
	s.online.Store(online)
}

func (s *Static) IsOnline(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	return s.online.Load(), nil
}
