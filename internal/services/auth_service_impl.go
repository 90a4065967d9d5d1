package services

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"

	"github.com/ajharbinger/churn-insight-api/internal/auth"
	"github.com/ajharbinger/churn-insight-api/internal/errors"
	"github.com/ajharbinger/churn-insight-api/internal/models"
	"github.com/ajharbinger/churn-insight-api/internal/repository"
	"github.com/ajharbinger/churn-insight-api/pkg/config"
)

// authServiceImpl implements AuthService
type authServiceImpl struct {
	repos        *repository.Repositories
	jwtService   *auth.JWTService
	hashPassword func(string) (string, error)
}

// NewAuthService creates a new auth service implementation
func NewAuthService(repos *repository.Repositories, cfg *config.Config) AuthService {
	return &authServiceImpl{
		repos:        repos,
		jwtService:   auth.NewJWTService(cfg.JWTSecret),
		hashPassword: auth.HashPassword,
	}
}

// Login authenticates a user and returns a token pair
func (s *authServiceImpl) Login(ctx context.Context, email, password string) (*models.LoginResponse, error) {
	user, err := s.repos.User.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.Unauthorized("invalid credentials", nil).WithOperation("Login")
		}
		return nil, errors.DatabaseError("failed to load user", err).WithOperation("Login")
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, errors.Unauthorized("invalid credentials", nil).WithOperation("Login")
	}

	return s.issueTokens(user)
}

// Register creates a new operator account
func (s *authServiceImpl) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	role := req.Role
	if role == "" {
		role = string(models.RoleAnalyst)
	}
	if role != string(models.RoleAnalyst) && role != string(models.RoleAdmin) {
		return nil, errors.ValidationError("invalid role", nil).WithDetails(role).WithOperation("Register")
	}

	hashed, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, errors.InternalError("failed to hash password", err).WithOperation("Register")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         role,
	}

	if err := s.repos.User.Create(ctx, user); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Conflict("user already exists", err).WithDetails(req.Email).WithOperation("Register")
		}
		return nil, errors.DatabaseError("failed to create user", err).WithOperation("Register")
	}

	user.PasswordHash = ""
	return user, nil
}

// ValidateToken validates an access token and returns the user it belongs to
func (s *authServiceImpl) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, errors.Unauthorized("invalid token", err).WithOperation("ValidateToken")
	}

	user, err := s.repos.User.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("user not found", err).WithOperation("ValidateToken")
	}

	user.PasswordHash = ""
	return user, nil
}

// RefreshToken issues a new token pair from a refresh token
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*models.LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("invalid refresh token", err).WithOperation("RefreshToken")
	}

	user, err := s.repos.User.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, errors.Unauthorized("user not found", err).WithOperation("RefreshToken")
	}

	return s.issueTokens(user)
}

func (s *authServiceImpl) issueTokens(user *models.User) (*models.LoginResponse, error) {
	claims := auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}

	token, expiresAt, err := s.jwtService.GenerateToken(claims)
	if err != nil {
		return nil, errors.InternalError("failed to generate token", err)
	}

	refreshToken, _, err := s.jwtService.GenerateRefreshToken(claims)
	if err != nil {
		return nil, errors.InternalError("failed to generate refresh token", err)
	}

	return &models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User: models.User{
			ID:        user.ID,
			Email:     user.Email,
			Role:      user.Role,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		},
		ExpiresAt: expiresAt,
	}, nil
}
