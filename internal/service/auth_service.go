package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"fieldpulse/surveyhub/internal/model"
	"fieldpulse/surveyhub/internal/repository"
	"fieldpulse/surveyhub/pkg/crypto"
	jwtpkg "fieldpulse/surveyhub/pkg/jwt"
)

type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (string, *model.User, error)
	// Login authenticates a researcher and issues an access token. When no
	// user exists for the configured admin username yet, the first successful
	// login with the admin credentials seeds that account.
	Login(ctx context.Context, username, password string) (string, *model.User, error)
	GetUser(ctx context.Context, username string) (*model.User, error)
}

type authService struct {
	userRepo      repository.UserRepository
	jwtManager    *jwtpkg.Manager
	adminUsername string
	adminPassword string
}

func NewAuthService(userRepo repository.UserRepository, jwtManager *jwtpkg.Manager, adminUsername, adminPassword string) AuthService {
	return &authService{
		userRepo:      userRepo,
		jwtManager:    jwtManager,
		adminUsername: adminUsername,
		adminPassword: adminPassword,
	}
}

func (s *authService) Signup(ctx context.Context, username, email, password string) (string, *model.User, error) {
	user, err := s.createUser(ctx, username, email, password)
	if err != nil {
		return "", nil, err
	}
	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}
	return token, user, nil
}

func (s *authService) Login(ctx context.Context, username, password string) (string, *model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if user == nil && username == s.adminUsername && s.adminUsername != "" {
		if password != s.adminPassword {
			return "", nil, ErrInvalidCredentials
		}
		user, err = s.createUser(ctx, s.adminUsername, "", s.adminPassword)
		if err != nil {
			return "", nil, err
		}
	}

	if user == nil || !crypto.CheckPassword(password, user.HashedPassword) {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrUserDisabled
	}

	token, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username)
	if err != nil {
		return "", nil, fmt.Errorf("sign access token: %w", err)
	}
	return token, user, nil
}

func (s *authService) GetUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

func (s *authService) createUser(ctx context.Context, username, email, password string) (*model.User, error) {
	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{
		Username:       username,
		Email:          email,
		HashedPassword: hashed,
		IsActive:       true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}
