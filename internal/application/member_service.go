package application

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
)

type MemberService struct {
	backend *Backend
}

func NewMemberService(backend *Backend) *MemberService {
	return &MemberService{backend: backend}
}

// List returns the household. Offline with an empty cache it falls back to
// the built-in directory.
func (s *MemberService) List(ctx context.Context) ([]domain.FamilyMember, error) {
	members, err := cachedFetch(ctx, s.backend, "family_all", func(ctx context.Context) ([]domain.FamilyMember, error) {
		return fetchList[domain.FamilyMember](ctx, s.backend, familyPath)
	})
	if err != nil && domain.IsTransient(err) {
		return domain.FamilyDirectory(), nil
	}

	return members, err
}

func (s *MemberService) Get(ctx context.Context, id int) (domain.FamilyMember, error) {
	if err := requireSavedID("id", id); err != nil {
		return domain.FamilyMember{}, err
	}

	return cachedFetch(ctx, s.backend, fmt.Sprintf("family_member_%d", id), func(ctx context.Context) (domain.FamilyMember, error) {
		return fetchOne[domain.FamilyMember](ctx, s.backend, familyMemberPath(id))
	})
}

func (s *MemberService) Create(ctx context.Context, req domain.CreateMemberRequest) (domain.FamilyMember, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = domain.MemberRoleMember
	}
	if err := req.Validate(); err != nil {
		return domain.FamilyMember{}, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionCreate,
		method:   http.MethodPost,
		endpoint: familyPath,
		body:     req,
	})
	if err != nil {
		return domain.FamilyMember{}, fmt.Errorf("create family member: %w", err)
	}
	if result.queued != nil {
		return domain.FamilyMember{
			ID:          s.backend.placeholderID(),
			Name:        req.Name,
			Role:        req.Role,
			AvatarColor: req.AvatarColor,
			CreatedAt:   s.backend.now(),
			UpdatedAt:   s.backend.now(),
		}, nil
	}

	return decodeRequired[domain.FamilyMember](result, "create family member")
}

func (s *MemberService) Update(ctx context.Context, id int, req domain.UpdateMemberRequest) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionUpdate,
		method:   http.MethodPut,
		endpoint: familyMemberPath(id),
		body:     req,
	})
	if err != nil {
		return nil, fmt.Errorf("update family member %d: %w", id, err)
	}

	return result.queued, nil
}

func (s *MemberService) Delete(ctx context.Context, id int) (*domain.PendingAction, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}

	result, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionDelete,
		method:   http.MethodDelete,
		endpoint: familyMemberPath(id),
	})
	if err != nil {
		return nil, fmt.Errorf("delete family member %d: %w", id, err)
	}

	return result.queued, nil
}

// RegisterPushToken stores the device push token on the member record.
func (s *MemberService) RegisterPushToken(ctx context.Context, id int, req domain.PushTokenRequest) error {
	if err := requireSavedID("id", id); err != nil {
		return err
	}
	if strings.TrimSpace(req.Token) == "" {
		return &domain.ValidationError{Field: "push_token", Reason: "is required"}
	}

	if _, err := s.backend.mutate(ctx, mutation{
		kind:     domain.ActionUpdate,
		method:   http.MethodPut,
		endpoint: pushTokenPath(id),
		body:     req,
		actorID:  id,
	}); err != nil {
		return fmt.Errorf("register push token for member %d: %w", id, err)
	}

	return nil
}

func (s *MemberService) Activity(ctx context.Context, id int) (domain.MemberActivity, error) {
	if err := requireSavedID("id", id); err != nil {
		return nil, err
	}

	return fetchOne[domain.MemberActivity](ctx, s.backend, activityPath(id))
}

// Select makes a directory member the device owner.
func (s *MemberService) Select(ctx context.Context, id int) (domain.CurrentUser, error) {
	member, err := domain.MemberByID(id)
	if err != nil {
		return domain.CurrentUser{}, fmt.Errorf("select member %d: %w", id, err)
	}

	user := domain.CurrentUser{ID: member.ID, Name: member.Name, Role: member.Role}
	if err := s.backend.identity.SaveUser(ctx, user); err != nil {
		return domain.CurrentUser{}, fmt.Errorf("select member %d: %w", id, err)
	}

	return user, nil
}

func (s *MemberService) Whoami(ctx context.Context) (domain.CurrentUser, bool) {
	return s.backend.identity.CurrentUser(ctx)
}

// Logout forgets the device owner and every cached response.
func (s *MemberService) Logout(ctx context.Context) error {
	if err := s.backend.identity.ClearUser(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if s.backend.cache != nil {
		if err := s.backend.cache.ClearAll(ctx); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
	}

	return nil
}

func requireSavedID(field string, id int) error {
	if id <= 0 {
		return &domain.ValidationError{Field: field, Reason: "must reference a saved record"}
	}

	return nil
}

// decodeRequired decodes the data of a live mutation response, which must be present.
func decodeRequired[T any](result mutateResult, op string) (T, error) {
	var out T
	if !result.envelope.HasData() {
		return out, fmt.Errorf("%s: %w", op, domain.ErrEmptyResponse)
	}
	if err := decodeData(result.envelope, &out); err != nil {
		return out, fmt.Errorf("%s: decode response: %w", op, err)
	}

	return out, nil
}
