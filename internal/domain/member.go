package domain

import (
	"context"
	"strings"
)

type MemberRole string

const (
	MemberRoleParent MemberRole = "parent"
	MemberRoleChild  MemberRole = "child"
	MemberRoleMember MemberRole = "member"
)

// DefaultMemberID is the identity used when nothing else has been selected.
const DefaultMemberID = 1

type FamilyMember struct {
	ID          int        `json:"id"`
	Name        string     `json:"name"`
	Role        MemberRole `json:"role"`
	AvatarColor string     `json:"avatar_color,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	UpdatedAt   string     `json:"updated_at,omitempty"`
}

func (m FamilyMember) IsParent() bool {
	return m.Role == MemberRoleParent
}

// CurrentUser is the locally persisted identity of whoever holds the device.
type CurrentUser struct {
	ID   int        `json:"id"`
	Name string     `json:"name"`
	Role MemberRole `json:"role"`
}

type CreateMemberRequest struct {
	Name        string     `json:"name"`
	Role        MemberRole `json:"role"`
	AvatarColor string     `json:"avatar_color,omitempty"`
}

func (r CreateMemberRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return invalid("name", "is required")
	}

	return validateRole(r.Role)
}

type UpdateMemberRequest struct {
	Name        *string     `json:"name,omitempty"`
	Role        *MemberRole `json:"role,omitempty"`
	AvatarColor *string     `json:"avatar_color,omitempty"`
}

func (r UpdateMemberRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return invalid("name", "must not be blank")
	}
	if r.Role != nil {
		return validateRole(*r.Role)
	}

	return nil
}

func validateRole(role MemberRole) error {
	switch role {
	case MemberRoleParent, MemberRoleChild, MemberRoleMember:
		return nil
	default:
		return invalid("role", "must be parent, child or member")
	}
}

type PushTokenRequest struct {
	Token    string `json:"push_token"`
	Platform string `json:"platform,omitempty"`
}

// MemberActivity is returned verbatim by the backend.
type MemberActivity map[string]any

var familyDirectory = []FamilyMember{
	{ID: 1, Name: "Marko", Role: MemberRoleParent, AvatarColor: "#3B82F6"},
	{ID: 2, Name: "Jasna", Role: MemberRoleParent, AvatarColor: "#EC4899"},
	{ID: 3, Name: "Anže", Role: MemberRoleChild, AvatarColor: "#10B981"},
	{ID: 4, Name: "David", Role: MemberRoleChild, AvatarColor: "#F59E0B"},
	{ID: 5, Name: "Filip", Role: MemberRoleChild, AvatarColor: "#8B5CF6"},
}

// FamilyDirectory lists the household members known without a network round trip.
func FamilyDirectory() []FamilyMember {
	members := make([]FamilyMember, len(familyDirectory))
	copy(members, familyDirectory)
	return members
}

func MemberByID(id int) (FamilyMember, error) {
	for _, member := range familyDirectory {
		if member.ID == id {
			return member, nil
		}
	}

	return FamilyMember{}, ErrMemberNotFound
}

type actingMemberKey struct{}

// WithActingMember pins the member id sent with every request made under ctx.
func WithActingMember(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, actingMemberKey{}, id)
}

func ActingMember(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(actingMemberKey{}).(int)
	if !ok || id <= 0 {
		return 0, false
	}

	return id, true
}
