// =============================================================================
// Pharmacy Records - User Store
// =============================================================================
//
// The user store owns users.txt. Exactly one record holds role Admin from
// first use onward:
//   - Bootstrap writes the default administrator into an empty store.
//   - CreateUser never grants Admin.
//   - UpdateUser never changes whether a record is the Admin.
//   - DeleteUser refuses the Admin record.
//
// Usernames are compared exactly. Records are addressed by position in the
// current load order, like the inventory.
//
// =============================================================================

package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/pharmacy-records/internal/flatfile"
	"github.com/ginjaninja78/pharmacy-records/internal/records"
	"github.com/ginjaninja78/pharmacy-records/internal/validation"
)

// Credentials is a username and password pair.
type Credentials struct {
	Username string
	Password string
}

// DefaultAdmin is written by Bootstrap when no other credentials are
// configured.
var DefaultAdmin = Credentials{Username: "admin", Password: "admin"}

// Options configures a Store.
type Options struct {
	// Hasher turns passwords into stored credentials. Defaults to bcrypt.
	Hasher PasswordHasher

	// DefaultAdmin is the account Bootstrap creates in an empty store.
	DefaultAdmin Credentials
}

// Store manages the user credential file.
type Store struct {
	store        *flatfile.Store[records.User]
	hasher       PasswordHasher
	defaultAdmin Credentials
	log          logrus.FieldLogger
}

// New creates a user store over the given file.
func New(path string, opts Options, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Hasher == nil {
		opts.Hasher = BcryptHasher{}
	}
	if opts.DefaultAdmin.Username == "" {
		opts.DefaultAdmin = DefaultAdmin
	}
	log = log.WithField("store", "users")
	return &Store{
		store:        flatfile.New[records.User](path, records.UserCodec{}, flatfile.NewGate(), log),
		hasher:       opts.Hasher,
		defaultAdmin: opts.DefaultAdmin,
		log:          log,
	}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.store.Path() }

func validateCredentials(username, password string) error {
	return validation.First(
		validation.Required("username", username),
		validation.NoDelimiter("username", username, records.UserCodec{}.Delimiter()),
		validation.Required("password", password),
		validation.NoDelimiter("password", password, "\n"),
	)
}

func validateRole(role records.Role) error {
	if _, err := records.ParseRole(string(role)); err != nil {
		return &validation.ValidationError{Field: "role", Value: string(role), Rule: "role", Message: err.Error()}
	}
	return nil
}

func (s *Store) newUser(username, password string, role records.Role) (records.User, error) {
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return records.User{}, err
	}
	return records.User{Username: username, Password: hashed, Role: role}, nil
}

// =============================================================================
// BOOTSTRAP AND LOGIN
// =============================================================================

// Bootstrap makes sure the store has its administrator.
//
// An empty store gets the default admin record. A non-empty store must
// already hold exactly one Admin; otherwise records.ErrInvariantViolation
// is returned and nothing is written.
func (s *Store) Bootstrap(ctx context.Context) error {
	return s.store.Gate().Write(ctx, func(ctx context.Context) error {
		list, err := s.store.LoadStrict(ctx)
		if err != nil {
			return err
		}

		if len(list) == 0 {
			admin, err := s.newUser(s.defaultAdmin.Username, s.defaultAdmin.Password, records.RoleAdmin)
			if err != nil {
				return err
			}
			if err := s.store.OverwriteAll(ctx, []records.User{admin}); err != nil {
				return err
			}
			s.log.WithField("username", admin.Username).Info("created default administrator")
			return nil
		}

		if n := countAdmins(list); n != 1 {
			return fmt.Errorf("%w: users file has %d administrators, want 1", records.ErrInvariantViolation, n)
		}
		return nil
	})
}

// CheckCredentials returns the role of the user whose username and
// password match, or records.ErrNotFound.
func (s *Store) CheckCredentials(ctx context.Context, username, password string) (records.Role, error) {
	list, err := s.LoadAll(ctx)
	if err != nil {
		return "", err
	}
	for _, u := range list {
		if u.Username == username && s.hasher.Verify(u.Password, password) {
			return u.Role, nil
		}
	}
	return "", fmt.Errorf("%w: invalid username or password", records.ErrNotFound)
}

// CheckAdmin reports whether the credentials belong to the administrator.
func (s *Store) CheckAdmin(ctx context.Context, username, password string) (bool, error) {
	role, err := s.CheckCredentials(ctx, username, password)
	if errors.Is(err, records.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == records.RoleAdmin, nil
}

// LoadAll returns every readable record. An unreadable file is treated as
// empty.
func (s *Store) LoadAll(ctx context.Context) ([]records.User, error) {
	list, err := s.store.LoadTolerant(ctx)
	if errors.Is(err, records.ErrIOUnavailable) {
		s.log.WithError(err).Warn("users file unavailable, treating as empty")
		return []records.User{}, nil
	}
	return list, err
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateUser adds a Pharmacist or Customer account.
//
// RETURNS:
//   - records.ErrDuplicateUsername if the username is taken.
//   - records.ErrInvariantViolation if role is Admin.
func (s *Store) CreateUser(ctx context.Context, username, password string, role records.Role) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	if err := validateRole(role); err != nil {
		return err
	}
	if role == records.RoleAdmin {
		return fmt.Errorf("%w: a second administrator cannot be created", records.ErrInvariantViolation)
	}

	return s.store.Gate().Write(ctx, func(ctx context.Context) error {
		list, err := s.store.LoadStrict(ctx)
		if err != nil {
			return err
		}
		if indexOf(list, username) >= 0 {
			return fmt.Errorf("%w: %q", records.ErrDuplicateUsername, username)
		}

		user, err := s.newUser(username, password, role)
		if err != nil {
			return err
		}
		if err := s.store.OverwriteAll(ctx, append(list, user)); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"username": username, "role": role}).Info("user created")
		return nil
	})
}

// UpdateUser replaces the record at index in the current load order.
//
// RETURNS:
//   - records.ErrInvalidIndex if index is out of range.
//   - records.ErrDuplicateUsername if username belongs to another record.
//   - records.ErrInvariantViolation if the change would demote the Admin
//     or promote another user to Admin.
func (s *Store) UpdateUser(ctx context.Context, index int, username, password string, role records.Role) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}
	if err := validateRole(role); err != nil {
		return err
	}

	return s.store.Gate().Write(ctx, func(ctx context.Context) error {
		list, err := s.store.LoadStrict(ctx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(list) {
			return records.IndexError(index, len(list))
		}
		if other := indexOf(list, username); other >= 0 && other != index {
			return fmt.Errorf("%w: %q", records.ErrDuplicateUsername, username)
		}

		wasAdmin := list[index].IsAdmin()
		switch {
		case wasAdmin && role != records.RoleAdmin:
			return fmt.Errorf("%w: the administrator cannot be demoted", records.ErrInvariantViolation)
		case !wasAdmin && role == records.RoleAdmin:
			return fmt.Errorf("%w: a second administrator cannot be created", records.ErrInvariantViolation)
		}

		user, err := s.newUser(username, password, role)
		if err != nil {
			return err
		}
		list[index] = user
		if err := s.store.OverwriteAll(ctx, list); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"index": index, "username": username}).Info("user updated")
		return nil
	})
}

// DeleteUser removes the record at index. The Admin record cannot be
// deleted.
func (s *Store) DeleteUser(ctx context.Context, index int) error {
	return s.store.Gate().Write(ctx, func(ctx context.Context) error {
		list, err := s.store.LoadStrict(ctx)
		if err != nil {
			return err
		}
		if index < 0 || index >= len(list) {
			return records.IndexError(index, len(list))
		}
		if list[index].IsAdmin() {
			return fmt.Errorf("%w: the administrator cannot be deleted", records.ErrInvariantViolation)
		}

		removed := list[index]
		list = append(list[:index], list[index+1:]...)
		if err := s.store.OverwriteAll(ctx, list); err != nil {
			return err
		}
		s.log.WithField("username", removed.Username).Info("user deleted")
		return nil
	})
}

// UpdateAdminCredentials changes the administrator's username, password,
// or both. A nil argument keeps the current value.
func (s *Store) UpdateAdminCredentials(ctx context.Context, newUsername, newPassword *string) error {
	return s.store.Gate().Write(ctx, func(ctx context.Context) error {
		list, err := s.store.LoadStrict(ctx)
		if err != nil {
			return err
		}

		index := -1
		for i, u := range list {
			if u.IsAdmin() {
				index = i
				break
			}
		}
		if index < 0 {
			return fmt.Errorf("%w: no administrator record", records.ErrInvariantViolation)
		}

		admin := list[index]
		if newUsername != nil {
			err := validation.First(
				validation.Required("username", *newUsername),
				validation.NoDelimiter("username", *newUsername, records.UserCodec{}.Delimiter()),
			)
			if err != nil {
				return err
			}
			if other := indexOf(list, *newUsername); other >= 0 && other != index {
				return fmt.Errorf("%w: %q", records.ErrDuplicateUsername, *newUsername)
			}
			admin.Username = *newUsername
		}
		if newPassword != nil {
			if err := validation.First(validation.Required("password", *newPassword)); err != nil {
				return err
			}
			hashed, err := s.hasher.Hash(*newPassword)
			if err != nil {
				return err
			}
			admin.Password = hashed
		}

		list[index] = admin
		if err := s.store.OverwriteAll(ctx, list); err != nil {
			return err
		}
		s.log.WithField("username", admin.Username).Info("administrator credentials updated")
		return nil
	})
}

func countAdmins(list []records.User) int {
	n := 0
	for _, u := range list {
		if u.IsAdmin() {
			n++
		}
	}
	return n
}

func indexOf(list []records.User, username string) int {
	for i, u := range list {
		if u.Username == username {
			return i
		}
	}
	return -1
}
