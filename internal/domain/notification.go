package domain

import "strings"

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

type NotificationToken struct {
	ID        int      `json:"id"`
	MemberID  int      `json:"member_id"`
	Token     string   `json:"token"`
	Platform  Platform `json:"platform"`
	Active    bool     `json:"active"`
	CreatedAt string   `json:"created_at,omitempty"`
	UpdatedAt string   `json:"updated_at,omitempty"`
}

// RegisterTokenRequest keeps the camelCase field names the register endpoint expects.
type RegisterTokenRequest struct {
	MemberID   int      `json:"memberId"`
	Token      string   `json:"token"`
	DeviceType Platform `json:"deviceType"`
}

func (r RegisterTokenRequest) Validate() error {
	if r.MemberID <= 0 {
		return invalid("memberId", "must reference a family member")
	}
	if strings.TrimSpace(r.Token) == "" {
		return invalid("token", "is required")
	}
	if r.DeviceType != PlatformIOS && r.DeviceType != PlatformAndroid {
		return invalid("deviceType", "must be ios or android")
	}

	return nil
}
