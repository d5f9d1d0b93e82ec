package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/consultation_bot/internal/repository"
	"go.uber.org/zap"
)

type UserService struct {
	clientRepo *repository.ClientRepository
	logger     *zap.Logger
}

func NewUserService(clientRepo *repository.ClientRepository, logger *zap.Logger) *UserService {
	return &UserService{
		clientRepo: clientRepo,
		logger:     logger,
	}
}

// ResolveName возвращает сохранённое имя; пустая строка - имя неизвестно или справочник недоступен
func (s *UserService) ResolveName(ctx context.Context, userID int64) string {
	client, err := s.clientRepo.GetByUserID(ctx, userID)
	if err != nil {
		s.logger.Warn("Failed to look up client name", zap.Int64("user_id", userID), zap.Error(err))
		return ""
	}
	if client == nil {
		return ""
	}
	return client.Name
}

// RememberName сохраняет имя клиента. Ошибка логируется здесь;
// диалог её отбрасывает и продолжает работу.
func (s *UserService) RememberName(ctx context.Context, userID int64, handle, name string) error {
	if err := s.clientRepo.Upsert(ctx, userID, handle, name); err != nil {
		s.logger.Warn("Failed to remember client name", zap.Int64("user_id", userID), zap.Error(err))
		return err
	}

	s.logger.Info("Client name saved", zap.Int64("user_id", userID))
	return nil
}

// Rename меняет имя по команде /rename; ошибку видит пользователь
func (s *UserService) Rename(ctx context.Context, userID int64, handle, name string) error {
	if err := s.clientRepo.Upsert(ctx, userID, handle, name); err != nil {
		return fmt.Errorf("rename client %d: %w", userID, err)
	}

	s.logger.Info("Client renamed", zap.Int64("user_id", userID))
	return nil
}
