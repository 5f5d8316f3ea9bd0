package services

import (
	"context"
	"time"

	"messenger-backend/apperror"
	"messenger-backend/config"
	"messenger-backend/models"
	"messenger-backend/utils"
)

// AuthService is the credential verifier: it issues bearer tokens after a
// password check and turns a presented token back into a verified identity.
type AuthService struct {
	users  *UserService
	secret string
	expiry time.Duration
}

func NewAuthService(users *UserService, cfg *config.Config) *AuthService {
	return &AuthService{
		users:  users,
		secret: cfg.JWTSecret,
		expiry: time.Duration(cfg.JWTExpiryHours) * time.Hour,
	}
}

// Login validates the credentials and issues a token. Every failure mode
// yields the same error so callers can't probe which part was wrong.
func (s *AuthService) Login(ctx context.Context, userName, password string) (string, *models.User, error) {
	unsuccessful := apperror.New(apperror.Unauthorized, "unsuccessful login")

	if userName == "" || password == "" {
		return "", nil, unsuccessful
	}

	user, err := s.users.FindByUserName(ctx, userName)
	if err != nil {
		return "", nil, err
	}
	if user == nil || !s.users.ValidatePassword(user, password) {
		return "", nil, unsuccessful
	}

	token, err := s.CreateToken(user.ID, user.UserName)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *AuthService) CreateToken(userID int, userName string) (string, error) {
	return utils.GenerateJWT(s.secret, userID, userName, s.expiry)
}

// VerifyToken returns the identity carried by a valid token.
func (s *AuthService) VerifyToken(token string) (int, string, error) {
	userID, userName, err := utils.ParseJWT(s.secret, token)
	if err != nil {
		return 0, "", apperror.Wrap(apperror.Unauthorized, "invalid token", err)
	}
	return userID, userName, nil
}
