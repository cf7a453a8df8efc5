package application

import (
	"context"
	"fmt"
	"net/http"

	"github.com/tentimesukulele/BobiPlanCheck/internal/domain"
	"go.uber.org/zap"
)

type NotificationService struct {
	backend *Backend
}

func NewNotificationService(backend *Backend) *NotificationService {
	return &NotificationService{backend: backend}
}

// RegisterToken records the device push token for memberID. Registration is
// best effort: failures are logged and reported as false.
func (s *NotificationService) RegisterToken(ctx context.Context, memberID int, token string, platform domain.Platform) bool {
	req := domain.RegisterTokenRequest{MemberID: memberID, Token: token, DeviceType: platform}
	if err := req.Validate(); err != nil {
		s.backend.logger.Warn("push token not registered", zap.Int("member_id", memberID), zap.Error(err))
		return false
	}

	if _, err := s.backend.send(domain.WithActingMember(ctx, memberID), http.MethodPost, registerTokenPath, req); err != nil {
		s.backend.logger.Warn("push token not registered", zap.Int("member_id", memberID), zap.Error(err))
		return false
	}

	s.backend.logger.Info("push token registered", zap.Int("member_id", memberID), zap.String("platform", string(platform)))
	return true
}

func (s *NotificationService) DeleteTokens(ctx context.Context, memberID int) error {
	if err := requireSavedID("member_id", memberID); err != nil {
		return err
	}

	if _, err := s.backend.send(ctx, http.MethodDelete, notificationTokensPath(memberID), nil); err != nil {
		return fmt.Errorf("delete push tokens of member %d: %w", memberID, err)
	}

	return nil
}
