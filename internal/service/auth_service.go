package service

import (
	"context"
	"strings"
	"time"

	"campusconnect/internal/models"
	"campusconnect/internal/repository"
	"campusconnect/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const tokenTTL = 24 * time.Hour

// AuthService handles sign-up, login, and token issuance.
type AuthService struct {
	users     repository.UserRepository
	jwtSecret string
}

// NewAuthService returns a new AuthService.
func NewAuthService(users repository.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{users: users, jwtSecret: jwtSecret}
}

// SignUpInput is the payload for creating an account.
type SignUpInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Course   string `json:"course"`
	Password string `json:"password"`
}

// LoginInput is the payload for logging in.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp validates the input, hashes the password, and creates the user.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*models.User, error) {
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Course:   strings.TrimSpace(in.Course),
		Password: string(hashed),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and returns the user plus a signed token.
// A missing account and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", models.NewUnauthenticatedError("Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, "", models.NewUnauthenticatedError("Invalid credentials")
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}

// generateToken issues an HS256 JWT with the registered claim set.
func (s *AuthService) generateToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": "campusconnect",
		"aud": "campusconnect-api",
		"sub": userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}
