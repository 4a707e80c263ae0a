package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"noteguard-be/internal/dto"
	"noteguard-be/internal/entity"
	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/internal/pkg/logger"
	"noteguard-be/internal/repository/contract"
	"noteguard-be/internal/repository/unitofwork"
	"noteguard-be/pkg/clock"
	"noteguard-be/pkg/jwt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	// CreateUser is the operator path used to provision admins.
	CreateUser(ctx context.Context, req *dto.RegisterRequest, role entity.UserRole) (*dto.UserResponse, error)
	ValidateToken(token string) (*dto.TokenValidationResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	clock      clock.Clock
	logger     logger.ILogger
	jwtSecret  string
	jwtTTL     time.Duration
}

func NewAuthService(
	uowFactory unitofwork.RepositoryFactory,
	clk clock.Clock,
	log logger.ILogger,
	jwtSecret string,
	jwtTTL time.Duration,
) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		clock:      clk,
		logger:     log,
		jwtSecret:  jwtSecret,
		jwtTTL:     jwtTTL,
	}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	user, err := s.createUser(ctx, req, entity.UserRoleUser)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *authService) CreateUser(ctx context.Context, req *dto.RegisterRequest, role entity.UserRole) (*dto.UserResponse, error) {
	if role != entity.UserRoleUser && role != entity.UserRoleAdmin {
		return nil, apperror.Validation("unknown role")
	}
	user, err := s.createUser(ctx, req, role)
	if err != nil {
		return nil, err
	}
	res := toUserResponse(user)
	return &res, nil
}

func (s *authService) createUser(ctx context.Context, req *dto.RegisterRequest, role entity.UserRole) (*entity.User, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	users := uow.UserRepository()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := users.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, apperror.Internal("failed to check username", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("username is already taken")
	}
	existing, err = users.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Internal("failed to check email", err)
	}
	if existing != nil {
		return nil, apperror.Conflict("email is already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	now := s.clock.Now()
	user := &entity.User{
		Id:           uuid.New(),
		Username:     req.Username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, user); err != nil {
		if errors.Is(err, contract.ErrDuplicateKey) {
			return nil, apperror.Conflict("username or email is already registered")
		}
		return nil, apperror.Internal("failed to create user", err)
	}

	s.logger.Info("AuthService", "User registered", map[string]interface{}{
		"user_id": user.Id.String(),
		"role":    string(role),
	})
	return user, nil
}

// Login accepts a username or an email address.
func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	users := uow.UserRepository()
	identifier := strings.TrimSpace(req.Identifier)

	user, err := users.FindByUsername(ctx, identifier)
	if err != nil {
		return nil, apperror.Internal("failed to load user", err)
	}
	if user == nil && strings.Contains(identifier, "@") {
		user, err = users.FindByEmail(ctx, strings.ToLower(identifier))
		if err != nil {
			return nil, apperror.Internal("failed to load user", err)
		}
	}
	if user == nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("AuthService", "Failed login attempt", map[string]interface{}{
			"user_id": user.Id.String(),
		})
		return nil, apperror.Unauthorized("invalid credentials")
	}

	return s.issue(user)
}

func (s *authService) ValidateToken(token string) (*dto.TokenValidationResponse, error) {
	claims, err := jwt.ValidateToken(token, s.jwtSecret)
	if err != nil {
		return nil, apperror.Unauthorized("invalid or expired token")
	}
	userId, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperror.Unauthorized("invalid token claims")
	}
	return &dto.TokenValidationResponse{Valid: true, UserId: userId, Role: claims.Role}, nil
}

func (s *authService) issue(user *entity.User) (*dto.AuthResponse, error) {
	token, err := jwt.GenerateToken(user.Id.String(), string(user.Role), s.jwtTTL, s.jwtSecret)
	if err != nil {
		return nil, apperror.Internal("failed to sign token", err)
	}
	return &dto.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: time.Now().Add(s.jwtTTL),
		User:      toUserResponse(user),
	}, nil
}

func toUserResponse(user *entity.User) dto.UserResponse {
	return dto.UserResponse{
		Id:        user.Id,
		Username:  user.Username,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
}
