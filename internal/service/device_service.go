package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-study-api/internal/dto"
	"github.com/noah-isme/gema-study-api/internal/repository"
)

// ErrUserNotFound indicates the acting account no longer exists.
var ErrUserNotFound = errors.New("user not found")

// DeviceService stores push tokens for the calling user.
type DeviceService interface {
	SaveToken(ctx context.Context, actor Actor, req dto.DeviceTokenRequest) error
	// ClearToken stops pushes to the user's device, e.g. on sign-out.
	ClearToken(ctx context.Context, actor Actor) error
}

type deviceService struct {
	users     repository.UserRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewDeviceService constructs a device token service.
func NewDeviceService(users repository.UserRepository, validate *validator.Validate, logger zerolog.Logger) DeviceService {
	return &deviceService{
		users:     users,
		validator: validate,
		logger:    logger.With().Str("component", "device_service").Logger(),
	}
}

func (s *deviceService) SaveToken(ctx context.Context, actor Actor, req dto.DeviceTokenRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if actor.ID == 0 {
		return ErrForbidden
	}

	if err := s.update(ctx, actor.ID, req.Token); err != nil {
		return err
	}

	s.logger.Debug().Uint("user_id", actor.ID).Msg("device token registered")
	return nil
}

func (s *deviceService) ClearToken(ctx context.Context, actor Actor) error {
	if actor.ID == 0 {
		return ErrForbidden
	}

	if err := s.update(ctx, actor.ID, ""); err != nil {
		return err
	}

	s.logger.Debug().Uint("user_id", actor.ID).Msg("device token cleared")
	return nil
}

func (s *deviceService) update(ctx context.Context, userID uint, token string) error {
	if err := s.users.UpdateDeviceToken(ctx, userID, token); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
