package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/lumen-media/lumen-server/apikeys"
	"github.com/lumen-media/lumen-server/sessions"
	"github.com/lumen-media/lumen-server/users"
	"github.com/pkg/errors"
)

// LoginDetails carries client device metadata recorded on the session.
type LoginDetails struct {
	DeviceType string
	DeviceOS   string
}

// LoginResponse is returned from a successful password login. AccessToken is
// the plaintext session token; only its fingerprint is stored.
type LoginResponse struct {
	AccessToken          string `json:"accessToken"`
	UserID               string `json:"userId"`
	UserEmail            string `json:"userEmail"`
	Name                 string `json:"name"`
	IsAdmin              bool   `json:"isAdmin"`
	ShouldChangePassword bool   `json:"shouldChangePassword"`
}

// CreateUser are the fields accepted when creating an account.
type CreateUser struct {
	Email                string
	Password             string
	Name                 string
	IsAdmin              bool
	ShouldChangePassword bool
}

// UpdateUser is a partial account update; nil fields are left untouched.
type UpdateUser struct {
	Email                *string
	Name                 *string
	Password             *string
	ShouldChangePassword *bool
}

// Login verifies an email/password pair and issues a new session. Lookup
// failure and password mismatch are collapsed into WrongCredentialsErr so the
// response does not reveal whether the account exists.
func (s *Service) Login(ctx context.Context, email, password string, details LoginDetails) (*LoginResponse, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.UserNotFoundErr) {
			return nil, WrongCredentialsErr
		}
		return nil, errors.Wrap(err, "[Login] Users.GetByEmail")
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, WrongCredentialsErr
	}

	token, err := NewSessionToken()
	if err != nil {
		return nil, errors.Wrap(err, "[Login] NewSessionToken")
	}

	now := s.nowTime()
	session := &sessions.Session{
		ID:               uuid.NewString(),
		TokenFingerprint: TokenFingerprint(token),
		UserID:           user.ID,
		DeviceType:       details.DeviceType,
		DeviceOS:         details.DeviceOS,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repos.Sessions.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "[Login] Sessions.Create")
	}

	return &LoginResponse{
		AccessToken:          token,
		UserID:               user.ID,
		UserEmail:            user.Email,
		Name:                 user.Name,
		IsAdmin:              user.IsAdmin,
		ShouldChangePassword: user.ShouldChangePassword,
	}, nil
}

// Logout deletes the session the caller authenticated with. API key contexts
// have no session and log out as a no-op.
func (s *Service) Logout(ctx context.Context, authCtx *AuthContext) error {
	if authCtx == nil || authCtx.Session == nil {
		return nil
	}
	if err := s.repos.Sessions.Delete(ctx, authCtx.Session.ID); err != nil {
		return errors.Wrap(err, "[Logout] Sessions.Delete")
	}
	return nil
}

// AdminSignUp creates the server's one admin account. It fails once an admin
// exists.
func (s *Service) AdminSignUp(ctx context.Context, email, password, name string) (*users.User, error) {
	admin, err := s.repos.Users.GetAdmin(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "[AdminSignUp] Users.GetAdmin")
	}
	if admin != nil {
		return nil, AdminAlreadyExistsErr
	}

	return s.CreateUserAccount(ctx, CreateUser{
		Email:    email,
		Password: password,
		Name:     name,
		IsAdmin:  true,
	})
}

// CreateUserAccount creates an account. The first registered account must be
// the admin, email addresses are unique among live accounts, and the password
// must meet the strength rules.
func (s *Service) CreateUserAccount(ctx context.Context, dto CreateUser) (*users.User, error) {
	existing, err := s.repos.Users.GetByEmail(ctx, dto.Email)
	if err != nil && !errors.Is(err, users.UserNotFoundErr) {
		return nil, errors.Wrap(err, "[CreateUserAccount] Users.GetByEmail")
	}
	if existing != nil {
		return nil, UserExistsErr
	}

	if !dto.IsAdmin {
		admin, err := s.repos.Users.GetAdmin(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "[CreateUserAccount] Users.GetAdmin")
		}
		if admin == nil {
			return nil, FirstUserNotAdminErr
		}
	}

	if err := users.ValidatePasswordStrength(dto.Password); err != nil {
		return nil, err
	}
	passwordHash, err := users.HashPassword(dto.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[CreateUserAccount] HashPassword")
	}

	now := s.nowTime()
	user := &users.User{
		ID:                   uuid.NewString(),
		Email:                dto.Email,
		Name:                 dto.Name,
		IsAdmin:              dto.IsAdmin,
		PasswordHash:         passwordHash,
		ShouldChangePassword: dto.ShouldChangePassword,
		Status:               users.StatusActive,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[CreateUserAccount] Users.Create")
	}
	return user, nil
}

// UpdateUserAccount applies a partial update to an account, rehashing the
// password and enforcing email uniqueness where relevant.
func (s *Service) UpdateUserAccount(ctx context.Context, id string, dto UpdateUser) (*users.User, error) {
	user, err := s.repos.Users.GetByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "[UpdateUserAccount] Users.GetByID")
	}

	if dto.Email != nil && *dto.Email != user.Email {
		duplicate, err := s.repos.Users.GetByEmail(ctx, *dto.Email)
		if err != nil && !errors.Is(err, users.UserNotFoundErr) {
			return nil, errors.Wrap(err, "[UpdateUserAccount] Users.GetByEmail")
		}
		if duplicate != nil {
			return nil, UserExistsErr
		}
		user.Email = *dto.Email
	}
	if dto.Name != nil {
		user.Name = *dto.Name
	}
	if dto.Password != nil {
		passwordHash, err := users.HashPassword(*dto.Password)
		if err != nil {
			return nil, errors.Wrap(err, "[UpdateUserAccount] HashPassword")
		}
		user.PasswordHash = passwordHash
	}
	if dto.ShouldChangePassword != nil {
		user.ShouldChangePassword = *dto.ShouldChangePassword
	}
	user.UpdatedAt = s.nowTime()

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[UpdateUserAccount] Users.Update")
	}
	return user, nil
}

// ChangePassword lets an authenticated user rotate their own password after
// re-proving the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) (*users.User, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[ChangePassword] Users.GetByID")
	}

	if !users.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return nil, WrongCredentialsErr
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return nil, err
	}

	passwordHash, err := users.HashPassword(newPassword)
	if err != nil {
		return nil, errors.Wrap(err, "[ChangePassword] HashPassword")
	}
	user.PasswordHash = passwordHash
	user.ShouldChangePassword = false
	user.UpdatedAt = s.nowTime()

	if err := s.repos.Users.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[ChangePassword] Users.Update")
	}
	return user, nil
}

// CreateAPIKey mints a new API key for a user. The returned secret is shown
// exactly once; only its fingerprint is stored.
func (s *Service) CreateAPIKey(ctx context.Context, userID, name string, permissions []apikeys.Permission) (string, *apikeys.APIKey, error) {
	if len(permissions) == 0 {
		return "", nil, InvalidPermissionErr
	}
	for _, p := range permissions {
		if !p.Valid() {
			return "", nil, errors.Wrapf(InvalidPermissionErr, "%q", p)
		}
	}

	secret, err := NewSessionToken()
	if err != nil {
		return "", nil, errors.Wrap(err, "[CreateAPIKey] NewSessionToken")
	}

	now := s.nowTime()
	key := &apikeys.APIKey{
		ID:             uuid.NewString(),
		Name:           name,
		KeyFingerprint: TokenFingerprint(secret),
		UserID:         userID,
		Permissions:    permissions,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repos.APIKeys.Create(ctx, key); err != nil {
		return "", nil, errors.Wrap(err, "[CreateAPIKey] APIKeys.Create")
	}
	return secret, key, nil
}
