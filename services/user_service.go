package services

import (
	"context"

	"messenger-backend/apperror"
	"messenger-backend/models"
	"messenger-backend/repository"
	"messenger-backend/utils"
)

// UserService is the only path to persisted user state. It encrypts PII on
// write, decrypts on read, and enforces userName uniqueness.
type UserService struct {
	users       repository.UserRepository
	memberships repository.MembershipRepository
	cipher      *utils.Cipher
}

func NewUserService(ur repository.UserRepository, mr repository.MembershipRepository, cipher *utils.Cipher) *UserService {
	return &UserService{users: ur, memberships: mr, cipher: cipher}
}

// NewUser carries the fields required to create a user. All are mandatory.
type NewUser struct {
	UserName  string `json:"userName"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// UpdateUser carries the profile fields that may change. Empty fields are
// left untouched.
type UpdateUser struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (s *UserService) Create(ctx context.Context, in NewUser) (*models.User, error) {
	if in.UserName == "" || in.FirstName == "" || in.LastName == "" || in.Email == "" || in.Password == "" {
		return nil, apperror.New(apperror.Validation, "missing required user field")
	}

	encUserName := s.cipher.Encrypt(in.UserName)
	existing, err := s.users.FindByUserName(ctx, encUserName)
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "looking up userName", err)
	}
	if existing != nil {
		return nil, apperror.New(apperror.DuplicateUsername, "userName already taken")
	}

	salt, err := utils.GenerateSalt()
	if err != nil {
		return nil, err
	}

	rec := &repository.UserRecord{
		UserName:     encUserName,
		FirstName:    s.cipher.Encrypt(in.FirstName),
		LastName:     s.cipher.Encrypt(in.LastName),
		Email:        s.cipher.Encrypt(in.Email),
		PasswordHash: utils.HashPassword(in.Password, salt),
		PasswordSalt: salt,
	}

	id, err := s.users.Insert(ctx, rec)
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "inserting user", err)
	}

	return &models.User{
		ID:           id,
		UserName:     in.UserName,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: rec.PasswordHash,
		PasswordSalt: rec.PasswordSalt,
	}, nil
}

// FindByID returns the user, or (nil, nil) when no row matches.
func (s *UserService) FindByID(ctx context.Context, id int) (*models.User, error) {
	rec, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "loading user", err)
	}
	if rec == nil {
		return nil, nil
	}
	return s.decrypt(rec)
}

// FindByUserName returns the user, or (nil, nil) when no row matches.
func (s *UserService) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	rec, err := s.users.FindByUserName(ctx, s.cipher.Encrypt(userName))
	if err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "loading user", err)
	}
	if rec == nil {
		return nil, nil
	}
	return s.decrypt(rec)
}

// ValidatePassword re-hashes the attempt with the stored salt and compares.
// A user without a salt never validates.
func (s *UserService) ValidatePassword(u *models.User, attempt string) bool {
	if u == nil || u.PasswordSalt == "" {
		return false
	}
	return utils.HashPassword(attempt, u.PasswordSalt) == u.PasswordHash
}

func (s *UserService) Update(ctx context.Context, id int, in UpdateUser) (*models.User, error) {
	encFields := make(map[string]string)
	if in.FirstName != "" {
		encFields["firstName"] = s.cipher.Encrypt(in.FirstName)
	}
	if in.LastName != "" {
		encFields["lastName"] = s.cipher.Encrypt(in.LastName)
	}
	if in.Email != "" {
		encFields["email"] = s.cipher.Encrypt(in.Email)
	}
	if len(encFields) == 0 {
		return nil, apperror.New(apperror.Validation, "no fields to update")
	}

	if err := s.users.UpdateProfile(ctx, id, encFields); err != nil {
		return nil, apperror.Wrap(apperror.Persistence, "updating user", err)
	}

	updated, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, apperror.New(apperror.NotFound, "user does not exist")
	}
	return updated, nil
}

// UpdatePassword re-hashes with the user's existing salt.
func (s *UserService) UpdatePassword(ctx context.Context, id int, newPassword string) error {
	if newPassword == "" {
		return apperror.New(apperror.Validation, "password is required")
	}

	rec, err := s.users.FindByID(ctx, id)
	if err != nil {
		return apperror.Wrap(apperror.Persistence, "loading user", err)
	}
	if rec == nil {
		return apperror.New(apperror.NotFound, "user does not exist")
	}

	hash := utils.HashPassword(newPassword, rec.PasswordSalt)
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return apperror.Wrap(apperror.Persistence, "updating password", err)
	}
	return nil
}

// Delete removes the user and all of their memberships, so live room
// subscriptions for this user have no membership backing left.
func (s *UserService) Delete(ctx context.Context, id int) error {
	rec, err := s.users.FindByID(ctx, id)
	if err != nil {
		return apperror.Wrap(apperror.Persistence, "loading user", err)
	}
	if rec == nil {
		return apperror.New(apperror.NotFound, "user does not exist")
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return apperror.Wrap(apperror.Persistence, "deleting user", err)
	}
	if err := s.memberships.RemoveAllForUser(ctx, id); err != nil {
		return apperror.Wrap(apperror.Persistence, "deleting user memberships", err)
	}
	return nil
}

func (s *UserService) decrypt(rec *repository.UserRecord) (*models.User, error) {
	userName, err := s.cipher.Decrypt(rec.UserName)
	if err != nil {
		return nil, err
	}
	firstName, err := s.cipher.Decrypt(rec.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := s.cipher.Decrypt(rec.LastName)
	if err != nil {
		return nil, err
	}
	email, err := s.cipher.Decrypt(rec.Email)
	if err != nil {
		return nil, err
	}

	return &models.User{
		ID:           rec.ID,
		UserName:     userName,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: rec.PasswordHash,
		PasswordSalt: rec.PasswordSalt,
	}, nil
}
