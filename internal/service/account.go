package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gotimer/backend/internal/apperr"
	"gotimer/backend/internal/models"
	"gotimer/backend/internal/repository"
	"gotimer/backend/internal/session"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6

	msgInvalidCredentials = "Invalid username or password"
	msgUserNotFound       = "User not found"
	msgUsernameTaken      = "Username already exists"
	msgEmailTaken         = "Email already exists"
)

// dummyHash is compared against when the username does not exist so that
// both login failures cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gotimer-dummy-password"), bcrypt.DefaultCost)

// AccountService handles registration, login and profile management.
type AccountService struct {
	repo repository.Repository
	cost int
}

// NewAccountService creates a new AccountService instance.
func NewAccountService(repo repository.Repository) *AccountService {
	return &AccountService{repo: repo, cost: bcrypt.DefaultCost}
}

// RegisterInput is the registration payload. Nil fields are missing.
type RegisterInput struct {
	Username *string
	Email    *string
	Password *string
}

// ProfileUpdate carries the fields to change. Nil fields are left as is.
type ProfileUpdate struct {
	Username *string
	Email    *string
}

// CurrentUser is the session identity plus the account row when it exists.
type CurrentUser struct {
	Identity session.Identity
	Account  *models.Account
}

// Register creates an account and signs the session in as it.
func (s *AccountService) Register(ctx context.Context, sess *session.Session, in RegisterInput) (*models.Account, error) {
	if in.Username == nil || in.Email == nil || in.Password == nil {
		return nil, apperr.Validation("Missing required fields")
	}
	username, email, password := *in.Username, *in.Email, *in.Password
	if utf8.RuneCountInString(username) < minUsernameLength {
		return nil, apperr.Validation("Username must be at least 3 characters")
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{Username: username, Email: email, PasswordHash: hash}
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		if err := ensureFree(ctx, tx.AccountByUsername, username, 0, msgUsernameTaken); err != nil {
			return err
		}
		if err := ensureFree(ctx, tx.AccountByEmail, email, 0, msgEmailTaken); err != nil {
			return err
		}
		if err := tx.CreateAccount(ctx, account); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Validation("Username or email already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal("Registration failed", err)
	}

	sess.SetIdentity(session.Registered{AccountID: account.ID, Username: account.Username})
	return account, nil
}

// Login verifies the credentials and signs the session in. Unknown usernames
// and wrong passwords fail identically.
func (s *AccountService) Login(ctx context.Context, sess *session.Session, username, password *string) (*models.Account, error) {
	if username == nil || password == nil {
		return nil, apperr.Validation("Missing username or password")
	}

	account, err := s.repo.AccountByUsername(ctx, *username)
	if errors.Is(err, repository.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(*password))
		return nil, apperr.Auth(msgInvalidCredentials)
	}
	if err != nil {
		return nil, internal("Login failed", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(*password)) != nil {
		return nil, apperr.Auth(msgInvalidCredentials)
	}

	sess.SetIdentity(session.Registered{AccountID: account.ID, Username: account.Username})
	return account, nil
}

// GuestLogin signs the session in as a fresh guest. Nothing is stored.
func (s *AccountService) GuestLogin(sess *session.Session) session.Guest {
	id := uuid.NewString()
	guest := session.Guest{ID: id, Name: "Guest_" + id[:8]}
	sess.SetIdentity(guest)
	return guest
}

// Logout clears the session. It succeeds for anonymous sessions too.
func (s *AccountService) Logout(sess *session.Session) {
	sess.Clear()
}

// CurrentUser returns the session identity. For registered sessions the
// account row is attached when it still exists.
func (s *AccountService) CurrentUser(ctx context.Context, sess *session.Session) (*CurrentUser, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	user := &CurrentUser{Identity: sess.Identity()}

	reg, ok := sess.Registered()
	if !ok {
		return user, nil
	}
	account, err := s.repo.AccountByID(ctx, reg.AccountID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, internal("Failed to get user info", err)
	default:
		user.Account = account
	}
	return user, nil
}

// GetProfile returns the caller's account.
func (s *AccountService) GetProfile(ctx context.Context, sess *session.Session) (*models.Account, error) {
	reg, err := registeredOnly(sess, "Guest users do not have profiles")
	if err != nil {
		return nil, err
	}
	account, err := loadAccount(ctx, s.repo, reg.AccountID)
	if err != nil {
		return nil, internal("Failed to get profile", err)
	}
	return account, nil
}

// UpdateProfile changes username and/or email. Each is checked against other
// accounts first. A new username is reflected in the session immediately.
func (s *AccountService) UpdateProfile(ctx context.Context, sess *session.Session, in ProfileUpdate) (*models.Account, error) {
	reg, err := registeredOnly(sess, "Guest users cannot update profiles")
	if err != nil {
		return nil, err
	}

	var account *models.Account
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		account, err = loadAccount(ctx, tx, reg.AccountID)
		if err != nil {
			return err
		}

		if in.Email != nil {
			if *in.Email == "" {
				return apperr.Validation("Email cannot be empty")
			}
			if err := ensureFree(ctx, tx.AccountByEmail, *in.Email, account.ID, msgEmailTaken); err != nil {
				return err
			}
			account.Email = *in.Email
		}
		if in.Username != nil {
			if utf8.RuneCountInString(*in.Username) < minUsernameLength {
				return apperr.Validation("Username must be at least 3 characters")
			}
			if err := ensureFree(ctx, tx.AccountByUsername, *in.Username, account.ID, msgUsernameTaken); err != nil {
				return err
			}
			account.Username = *in.Username
		}

		if err := tx.UpdateAccount(ctx, account); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperr.Validation("Username or email already exists")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, internal("Failed to update profile", err)
	}

	sess.SetIdentity(session.Registered{AccountID: account.ID, Username: account.Username})
	return account, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *AccountService) ChangePassword(ctx context.Context, sess *session.Session, current, next *string) error {
	reg, err := registeredOnly(sess, "Guest users cannot change passwords")
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		account, err := loadAccount(ctx, tx, reg.AccountID)
		if err != nil {
			return err
		}
		if current == nil || next == nil {
			return apperr.Validation("Missing required fields")
		}
		if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(*current)) != nil {
			return apperr.Validation("Current password is incorrect")
		}
		if utf8.RuneCountInString(*next) < minPasswordLength {
			return apperr.Validation("New password must be at least 6 characters")
		}

		hash, err := s.hash(*next)
		if err != nil {
			return err
		}
		account.PasswordHash = hash
		return tx.UpdateAccount(ctx, account)
	})
	return internal("Failed to change password", err)
}

// DeleteAccount removes the caller's account with all of its games and
// moves, then clears the session.
func (s *AccountService) DeleteAccount(ctx context.Context, sess *session.Session) error {
	reg, err := registeredOnly(sess, "Guest users cannot delete accounts")
	if err != nil {
		return err
	}

	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		if _, err := loadAccount(ctx, tx, reg.AccountID); err != nil {
			return err
		}
		return tx.DeleteAccount(ctx, reg.AccountID)
	})
	if err != nil {
		return internal("Failed to delete account", err)
	}

	sess.Clear()
	return nil
}

func (s *AccountService) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Validation("Password must be at most 72 bytes")
	}
	if err != nil {
		return "", internal("Failed to hash password", err)
	}
	return string(hash), nil
}

func loadAccount(ctx context.Context, repo repository.Repository, id uint) (*models.Account, error) {
	account, err := repo.AccountByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound(msgUserNotFound)
	}
	return account, err
}

// ensureFree fails with msg when lookup finds an account other than self.
func ensureFree(ctx context.Context, lookup func(context.Context, string) (*models.Account, error), value string, self uint, msg string) error {
	existing, err := lookup(ctx, value)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return apperr.Validation(msg)
	}
	return nil
}
