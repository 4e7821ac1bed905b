package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bookly/config"
	"bookly/internal/domain"
	"bookly/internal/events"
	"bookly/internal/repository"
	"bookly/pkg/auth"
)

const refreshTokenBytes = 32

type tokenClaims struct {
	jwt.RegisteredClaims
	Role       domain.Role `json:"role"`
	SubjectID  int64       `json:"subject_id"`
	BusinessID int64       `json:"business_id,omitempty"`
	StaffName  string      `json:"staff_name,omitempty"`
	Email      string      `json:"email"`
}

var (
	loginEvents = map[domain.Role]events.Kind{
		domain.RoleBusiness: events.BusinessLogin,
		domain.RoleAdmin:    events.AdminLogin,
		domain.RoleStaff:    events.StaffLogin,
	}
	logoutEvents = map[domain.Role]events.Kind{
		domain.RoleBusiness: events.BusinessLogout,
		domain.RoleAdmin:    events.AdminLogout,
		domain.RoleStaff:    events.StaffLogout,
	}
)

type AuthServiceImpl struct {
	authRepo     repository.AuthRepository
	businessRepo repository.BusinessRepository
	jwtConfig    config.JWTConfig
	events       events.Publisher
	logger       *zap.Logger
}

func NewAuthService(authRepo repository.AuthRepository, businessRepo repository.BusinessRepository, jwtConfig config.JWTConfig, publisher events.Publisher, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		authRepo:     authRepo,
		businessRepo: businessRepo,
		jwtConfig:    jwtConfig,
		events:       publisher,
		logger:       logger,
	}
}

func (s *AuthServiceImpl) Login(ctx context.Context, role domain.Role, dto domain.LoginRequest, userAgent, ip string) (*domain.Tokens, error) {
	var (
		principal *domain.Principal
		err       error
	)

	switch role {
	case domain.RoleBusiness:
		principal, err = s.authenticateBusiness(ctx, dto)
	case domain.RoleAdmin:
		principal, err = s.authenticateAdmin(ctx, dto)
	case domain.RoleStaff:
		principal, err = s.authenticateStaff(ctx, dto)
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, role)
	}
	if err != nil {
		s.logger.Warn("Login failed", zap.String("role", string(role)), zap.String("email", dto.Email), zap.Error(err))
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, *principal, userAgent, ip)
	if err != nil {
		return nil, err
	}

	s.events.Publish(ctx, events.New(loginEvents[role], principal.BusinessID, principal))
	s.logger.Info("Logged in", zap.String("role", string(role)), zap.Int64("subject_id", principal.SubjectID))

	return tokens, nil
}

func (s *AuthServiceImpl) authenticateBusiness(ctx context.Context, dto domain.LoginRequest) (*domain.Principal, error) {
	business, err := s.businessRepo.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, notFoundAsCredentials(err)
	}

	if err := checkPassword(dto.Password, business.PasswordHash); err != nil {
		return nil, err
	}

	if !business.IsActive {
		return nil, domain.ErrInactive
	}

	return &domain.Principal{
		Role:       domain.RoleBusiness,
		SubjectID:  business.ID,
		BusinessID: business.ID,
		Email:      business.Email,
	}, nil
}

func (s *AuthServiceImpl) authenticateAdmin(ctx context.Context, dto domain.LoginRequest) (*domain.Principal, error) {
	admin, err := s.authRepo.GetAdminByEmail(ctx, dto.Email)
	if err != nil {
		return nil, notFoundAsCredentials(err)
	}

	if err := checkPassword(dto.Password, admin.PasswordHash); err != nil {
		return nil, err
	}

	return &domain.Principal{
		Role:      domain.RoleAdmin,
		SubjectID: admin.ID,
		Email:     admin.Email,
	}, nil
}

// authenticateStaff finds the staff member by email inside their business's
// staff list. Staff have no id of their own; the business id stands in.
func (s *AuthServiceImpl) authenticateStaff(ctx context.Context, dto domain.LoginRequest) (*domain.Principal, error) {
	business, err := s.businessRepo.GetByStaffEmail(ctx, dto.Email)
	if err != nil {
		return nil, notFoundAsCredentials(err)
	}

	var member *domain.Staff
	for i := range business.Staff {
		if strings.EqualFold(business.Staff[i].Email, dto.Email) {
			member = &business.Staff[i]
			break
		}
	}
	if member == nil || member.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if err := checkPassword(dto.Password, member.PasswordHash); err != nil {
		return nil, err
	}

	if !business.IsActive || !member.IsActive {
		return nil, domain.ErrInactive
	}

	return &domain.Principal{
		Role:       domain.RoleStaff,
		SubjectID:  business.ID,
		BusinessID: business.ID,
		StaffName:  member.Name,
		Email:      strings.ToLower(member.Email),
	}, nil
}

func (s *AuthServiceImpl) RefreshTokens(ctx context.Context, refreshToken, userAgent, ip string) (*domain.Tokens, error) {
	session, err := s.authRepo.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown refresh token", domain.ErrInvalidCredentials)
		}
		s.logger.Error("Failed to load session", zap.Error(err))
		return nil, err
	}

	if session.ExpiresAt.Before(time.Now()) {
		if err := s.authRepo.DeleteSession(ctx, session.ID); err != nil {
			s.logger.Warn("Failed to delete expired session", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: refresh token expired", domain.ErrInvalidCredentials)
	}

	principal := session.Principal()
	if principal.Role != domain.RoleAdmin {
		business, err := s.businessRepo.GetByID(ctx, principal.BusinessID)
		if err != nil {
			return nil, notFoundAsCredentials(err)
		}
		if !business.IsActive {
			return nil, domain.ErrInactive
		}
		if principal.Role == domain.RoleStaff {
			member, ok := business.FindStaff(principal.StaffName)
			if !ok || !member.IsActive {
				return nil, domain.ErrInactive
			}
		}
	}

	if err := s.authRepo.DeleteSession(ctx, session.ID); err != nil {
		s.logger.Warn("Failed to delete old session", zap.Error(err))
	}

	return s.issueTokens(ctx, principal, userAgent, ip)
}

func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.authRepo.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("Session not found on logout")
			return nil
		}
		return err
	}

	if err := s.authRepo.DeleteSession(ctx, session.ID); err != nil {
		s.logger.Error("Failed to delete session", zap.Error(err))
		return err
	}

	principal := session.Principal()
	s.events.Publish(ctx, events.New(logoutEvents[principal.Role], principal.BusinessID, principal))

	return nil
}

func (s *AuthServiceImpl) ParseToken(_ context.Context, tokenString string) (*domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.SigningKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid || !claims.Role.IsValid() {
		return nil, fmt.Errorf("%w: invalid token", domain.ErrInvalidCredentials)
	}

	return &domain.Principal{
		Role:       claims.Role,
		SubjectID:  claims.SubjectID,
		BusinessID: claims.BusinessID,
		StaffName:  claims.StaffName,
		Email:      claims.Email,
	}, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist yet.
func (s *AuthServiceImpl) EnsureAdmin(ctx context.Context, email, password, name string) error {
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.authRepo.GetAdminByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("error hashing admin password: %w", err)
	}

	id, err := s.authRepo.CreateAdmin(ctx, domain.Admin{Email: email, Name: name, PasswordHash: hash})
	if err != nil {
		return err
	}

	s.logger.Info("Bootstrap admin created", zap.Int64("admin_id", id), zap.String("email", email))
	return nil
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, principal domain.Principal, userAgent, ip string) (*domain.Tokens, error) {
	now := time.Now()

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtConfig.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role:       principal.Role,
		SubjectID:  principal.SubjectID,
		BusinessID: principal.BusinessID,
		StaffName:  principal.StaffName,
		Email:      principal.Email,
	})
	accessTokenString, err := accessToken.SignedString([]byte(s.jwtConfig.SigningKey))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err))
		return nil, fmt.Errorf("error signing access token: %w", err)
	}

	refreshToken, err := auth.GenerateRandomToken(refreshTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	session := domain.Session{
		ID:           uuid.New().String(),
		Role:         principal.Role,
		SubjectID:    principal.SubjectID,
		BusinessID:   principal.BusinessID,
		StaffName:    principal.StaffName,
		Email:        principal.Email,
		RefreshToken: refreshToken,
		UserAgent:    userAgent,
		IP:           ip,
		ExpiresAt:    now.Add(s.jwtConfig.RefreshTokenTTL),
		CreatedAt:    now,
	}

	if err := s.authRepo.CreateSession(ctx, session); err != nil {
		s.logger.Error("Failed to save session", zap.Error(err))
		return nil, err
	}

	return &domain.Tokens{
		AccessToken:  accessTokenString,
		RefreshToken: refreshToken,
		Principal:    principal,
	}, nil
}

func checkPassword(password, hash string) error {
	ok, err := auth.VerifyPassword(password, hash)
	if err != nil || !ok {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func notFoundAsCredentials(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrInvalidCredentials
	}
	return err
}
