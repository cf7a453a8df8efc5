package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"github.com/tentimesukulele/BobiPlanCheck/internal/logging"
	"github.com/tentimesukulele/BobiPlanCheck/internal/ports"
	"go.uber.org/zap"
)

const CurrentUserKey = "@BobiPlan:currentUser"

// Identity supplies the acting family member. Resolution order is the id on
// the context, then Set, then the persisted current user, then the default.
type Identity struct {
	store     ports.KeyValueStore
	defaultID int
	logger    *zap.Logger

	mu       sync.RWMutex
	explicit int
	user     *domain.CurrentUser
}

var _ ports.IdentityResolver = (*Identity)(nil)

func NewIdentity(store ports.KeyValueStore, defaultID int, logger *zap.Logger) *Identity {
	if defaultID <= 0 {
		defaultID = domain.DefaultMemberID
	}

	return &Identity{store: store, defaultID: defaultID, logger: logging.OrNop(logger)}
}

// Set overrides the persisted user for this process. Non-positive ids clear it.
func (i *Identity) Set(id int) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if id < 0 {
		id = 0
	}
	i.explicit = id
}

func (i *Identity) Clear() {
	i.Set(0)
}

func (i *Identity) ResolveMemberID(ctx context.Context) (int, error) {
	if id, ok := domain.ActingMember(ctx); ok {
		return id, nil
	}

	i.mu.RLock()
	explicit := i.explicit
	i.mu.RUnlock()
	if explicit > 0 {
		return explicit, nil
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	user, ok := i.CurrentUser(ctx)
	if ok && user.ID > 0 {
		return user.ID, nil
	}

	return i.defaultID, nil
}

// SaveUser persists user as the device owner and makes it the acting member.
func (i *Identity) SaveUser(ctx context.Context, user domain.CurrentUser) error {
	if user.ID <= 0 {
		return &domain.ValidationError{Field: "id", Reason: "must reference a family member"}
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode current user: %w", err)
	}
	if err := i.store.Set(ctx, CurrentUserKey, string(raw)); err != nil {
		return fmt.Errorf("%w: save current user: %w", domain.ErrPersistence, err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.user = &user
	i.explicit = 0

	return nil
}

// LoadUser reads the persisted user, bypassing the in-memory copy.
// It returns domain.ErrNotFound when nobody has been selected yet.
func (i *Identity) LoadUser(ctx context.Context) (domain.CurrentUser, error) {
	raw, err := i.store.Get(ctx, CurrentUserKey)
	if err != nil {
		return domain.CurrentUser{}, fmt.Errorf("load current user: %w", err)
	}

	var user domain.CurrentUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return domain.CurrentUser{}, fmt.Errorf("%w: decode current user: %w", domain.ErrPersistence, err)
	}

	i.mu.Lock()
	i.user = &user
	i.mu.Unlock()

	return user, nil
}

func (i *Identity) ClearUser(ctx context.Context) error {
	if err := i.store.Remove(ctx, CurrentUserKey); err != nil {
		return fmt.Errorf("%w: clear current user: %w", domain.ErrPersistence, err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.user = nil
	i.explicit = 0

	return nil
}

// CurrentUser returns the remembered user, loading it on first use. Load
// failures are logged and reported as no user.
func (i *Identity) CurrentUser(ctx context.Context) (domain.CurrentUser, bool) {
	i.mu.RLock()
	cached := i.user
	i.mu.RUnlock()
	if cached != nil {
		return *cached, true
	}

	user, err := i.LoadUser(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			i.logger.Warn("load current user failed", zap.String("key", CurrentUserKey), zap.Error(err))
		}
		return domain.CurrentUser{}, false
	}

	return user, true
}

func (i *Identity) IsLoggedIn(ctx context.Context) bool {
	_, ok := i.CurrentUser(ctx)
	return ok
}
