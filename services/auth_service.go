package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"sweetshop-backend/models"
	"sweetshop-backend/repository"
)

type RegisterResult struct {
	Message string `json:"message"`
	// Otp is only populated when no email transport is configured, so local
	// setups can complete verification without a mailbox.
	Otp string `json:"otp,omitempty"`
}

type AuthService interface {
	// InitiateRegister creates the unverified account and issues a 6-digit
	// verification code with a short expiry. Re-initiating replaces the code.
	InitiateRegister(ctx context.Context, req *models.RegisterRequest) (*RegisterResult, *ServiceError)
	VerifyOtp(ctx context.Context, req *models.VerifyOtpRequest) *ServiceError
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, *ServiceError)
}

type authService struct {
	users     repository.UserRepository
	otps      repository.OtpRepository
	tokens    TokenService
	email     EmailSender
	otpExpiry time.Duration
	logger    *zap.Logger
}

func NewAuthService(users repository.UserRepository, otps repository.OtpRepository, tokens TokenService, email EmailSender, otpExpiry time.Duration, logger *zap.Logger) AuthService {
	return &authService{
		users:     users,
		otps:      otps,
		tokens:    tokens,
		email:     email,
		otpExpiry: otpExpiry,
		logger:    logger,
	}
}

func (s *authService) InitiateRegister(ctx context.Context, req *models.RegisterRequest) (*RegisterResult, *ServiceError) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	if existing, err := s.users.FindByIdentifier(ctx, email); err == nil && existing != nil {
		if existing.EmailVerified {
			return nil, newServiceError(http.StatusConflict, "An account with this email already exists")
		}
		// Unverified leftover from an abandoned signup: fall through and
		// reissue the code below.
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("registration lookup failed", zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to register")
	} else {
		if _, err := s.users.FindByIdentifier(ctx, username); err == nil {
			return nil, newServiceError(http.StatusConflict, "Username is taken")
		} else if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Error("registration lookup failed", zap.Error(err))
			return nil, newServiceError(http.StatusInternalServerError, "Failed to register")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("password hash failed", zap.Error(err))
			return nil, newServiceError(http.StatusInternalServerError, "Failed to register")
		}
		user := &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: string(hash),
			Role:         models.RoleUser,
		}
		if err := s.users.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, newServiceError(http.StatusConflict, "An account with this email or username already exists")
			}
			s.logger.Error("user create failed", zap.Error(err))
			return nil, newServiceError(http.StatusInternalServerError, "Failed to register")
		}
	}

	code, err := generateOtp()
	if err != nil {
		s.logger.Error("otp generation failed", zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to register")
	}
	if err := s.otps.Replace(ctx, email, code, time.Now().Add(s.otpExpiry)); err != nil {
		s.logger.Error("otp store failed", zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to register")
	}

	if err := s.email.SendVerificationCode(email, code); err != nil {
		s.logger.Warn("verification email failed", zap.String("email", email), zap.Error(err))
	}

	result := &RegisterResult{Message: "Verification code sent"}
	if !s.email.Enabled() {
		result.Otp = code
	}
	return result, nil
}

func (s *authService) VerifyOtp(ctx context.Context, req *models.VerifyOtpRequest) *ServiceError {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	otp, err := s.otps.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newServiceError(http.StatusBadRequest, "Invalid or expired verification code")
		}
		s.logger.Error("otp lookup failed", zap.Error(err))
		return newServiceError(http.StatusInternalServerError, "Failed to verify")
	}
	if time.Now().After(otp.ExpiresAt) {
		_ = s.otps.DeleteByEmail(ctx, email)
		return newServiceError(http.StatusBadRequest, "Verification code has expired")
	}
	if otp.Code != req.Code {
		return newServiceError(http.StatusBadRequest, "Invalid or expired verification code")
	}

	if err := s.users.MarkEmailVerified(ctx, email); err != nil {
		s.logger.Error("email verify failed", zap.String("email", email), zap.Error(err))
		return newServiceError(http.StatusInternalServerError, "Failed to verify")
	}
	if err := s.otps.DeleteByEmail(ctx, email); err != nil {
		s.logger.Warn("otp cleanup failed", zap.String("email", email), zap.Error(err))
	}

	s.logger.Info("email verified", zap.String("email", email))
	return nil
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, *ServiceError) {
	identifier := strings.ToLower(strings.TrimSpace(req.Identifier))

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newServiceError(http.StatusUnauthorized, "Invalid credentials")
		}
		s.logger.Error("login lookup failed", zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to log in")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, newServiceError(http.StatusUnauthorized, "Invalid credentials")
	}
	if !user.EmailVerified {
		return nil, newServiceError(http.StatusForbidden, "Email is not verified")
	}

	token, err := s.tokens.Generate(user.ID.String(), user.Role)
	if err != nil {
		s.logger.Error("token generation failed", zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to log in")
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))
	return &models.LoginResponse{Token: token, User: *user}, nil
}

// generateOtp returns a uniformly random 6-digit code.
func generateOtp() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
