// Package services contains server-side business logic: the access gate
// (UserService), page and attachment management (AttachmentService), career
// paths (CareerPathService) and the orphan sweep (Reconciler).
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/studynest/internal/common"
	"github.com/dmitrijs2005/studynest/internal/keylock"
	"github.com/dmitrijs2005/studynest/internal/logging"
	"github.com/dmitrijs2005/studynest/internal/server/auth"
	"github.com/dmitrijs2005/studynest/internal/server/config"
	"github.com/dmitrijs2005/studynest/internal/server/models"
	"github.com/dmitrijs2005/studynest/internal/server/repositories/repomanager"
)

const (
	LoginMessage    = "Login successful"
	teacherRedirect = "../lecturer/home.html"
	studentRedirect = "../student/home.html"
)

// RegisterInput is a new account as submitted to /register.
type RegisterInput struct {
	UserName string
	Password string
	Role     string
	RollNo   string
}

// LoginResult is returned by a successful Login.
type LoginResult struct {
	UserName    string
	Role        string
	Redirect    string
	AccessToken string
}

// UserService is the access gate. It registers accounts, verifies
// credentials and resolves the caller of every request against the store.
type UserService struct {
	repomanager                 repomanager.RepositoryManager
	locks                       *keylock.Locker
	log                         logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	allowLegacyPasswords        bool
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(m repomanager.RepositoryManager, cfg *config.Config, locks *keylock.Locker, log logging.Logger) *UserService {
	return &UserService{
		repomanager:                 m,
		locks:                       locks,
		log:                         log.With("module", "users"),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		allowLegacyPasswords:        cfg.AllowLegacyPasswords,
	}
}

// Register creates a student or teacher account without further checks.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := validateRegistration(&in, common.RoleStudent, common.RoleTeacher); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// RegisterPrivileged creates an account on behalf of an admin whose
// credentials accompany the request. Any credential mismatch is Forbidden.
func (s *UserService) RegisterPrivileged(ctx context.Context, adminUserName, adminPassword string, in RegisterInput) (*models.User, error) {
	if err := s.verifyAdmin(ctx, adminUserName, adminPassword); err != nil {
		return nil, err
	}
	if err := validateRegistration(&in, common.RoleStudent, common.RoleTeacher, common.RoleAdmin); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// Bootstrap inserts an admin account. It is used by the createadmin command.
func (s *UserService) Bootstrap(ctx context.Context, userName, password, rollNo string) (*models.User, error) {
	in := RegisterInput{UserName: userName, Password: password, Role: common.RoleAdmin, RollNo: rollNo}
	if err := validateRegistration(&in, common.RoleAdmin); err != nil {
		return nil, err
	}
	return s.create(ctx, in)
}

// Login verifies the password and issues an access token. Unknown users and
// wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, identity, password string) (*LoginResult, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorInvalidInput)
	}

	repo := s.repomanager.Users()
	user, err := repo.GetUserByLogin(ctx, identity)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", common.ErrorUnauthenticated)
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	if !s.checkPassword(user.Password, password) {
		return nil, fmt.Errorf("%w: invalid username or password", common.ErrorUnauthenticated)
	}

	if auth.IsLegacy(user.Password) {
		s.upgradePassword(ctx, user, password)
	}

	token, err := auth.GenerateToken(user.UserName, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("error signing token: %w", err)
	}

	return &LoginResult{
		UserName:    user.UserName,
		Role:        user.Role,
		Redirect:    redirectFor(user.Role),
		AccessToken: token,
	}, nil
}

// Resolve looks up the caller named by the username header.
func (s *UserService) Resolve(ctx context.Context, userName string) (*models.User, error) {
	userName = strings.TrimSpace(userName)
	if userName == "" {
		return nil, fmt.Errorf("%w: no identity supplied", common.ErrorUnauthenticated)
	}

	user, err := s.repomanager.Users().GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown user", common.ErrorUnauthenticated)
		}
		return nil, fmt.Errorf("error looking up user: %w", err)
	}
	return user, nil
}

// ResolveToken validates a bearer token and re-reads its subject, so a
// deleted account or a changed role takes effect immediately.
func (s *UserService) ResolveToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorUnauthenticated, err)
	}
	return s.Resolve(ctx, claims.Subject)
}

// Authorize checks that user holds one of roles.
func (s *UserService) Authorize(user *models.User, roles ...string) error {
	if user == nil {
		return common.ErrorUnauthenticated
	}
	return requireRole(user, roles...)
}

// --- helpers below ---

func (s *UserService) create(ctx context.Context, in RegisterInput) (*models.User, error) {
	unlock := s.locks.Lock("user:" + in.UserName)
	defer unlock()

	repo := s.repomanager.Users()
	if _, err := repo.GetUserByLogin(ctx, in.UserName); err == nil {
		return nil, fmt.Errorf("%w: user %q", common.ErrorAlreadyExists, in.UserName)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	u, err := repo.Create(ctx, &models.User{
		UserName: in.UserName,
		Password: hash,
		Role:     in.Role,
		RollNo:   in.RollNo,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: user %q", common.ErrorAlreadyExists, in.UserName)
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user", u.UserName, "role", u.Role)
	return u, nil
}

func (s *UserService) verifyAdmin(ctx context.Context, userName, password string) error {
	if userName == "" || password == "" {
		return fmt.Errorf("%w: admin credentials required", common.ErrorForbidden)
	}
	admin, err := s.repomanager.Users().GetUserByLogin(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: access denied", common.ErrorForbidden)
		}
		return fmt.Errorf("error looking up admin: %w", err)
	}
	if admin.Role != common.RoleAdmin || !s.checkPassword(admin.Password, password) {
		return fmt.Errorf("%w: access denied", common.ErrorForbidden)
	}
	return nil
}

func (s *UserService) checkPassword(stored, candidate string) bool {
	if auth.IsLegacy(stored) && !s.allowLegacyPasswords {
		return false
	}
	return auth.CheckPassword(stored, candidate)
}

// upgradePassword replaces a plaintext password with its hash. Failure is
// logged and does not fail the login.
func (s *UserService) upgradePassword(ctx context.Context, user *models.User, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.log.Warn(ctx, "password rehash failed", "user", user.UserName, "error", err)
		return
	}
	if err := s.repomanager.Users().UpdatePassword(ctx, user.ID, hash); err != nil {
		s.log.Warn(ctx, "password upgrade failed", "user", user.UserName, "error", err)
		return
	}
	s.log.Info(ctx, "legacy password upgraded", "user", user.UserName)
}

// validateRegistration trims the identity fields in place and checks them.
func validateRegistration(in *RegisterInput, roles ...string) error {
	in.UserName = strings.TrimSpace(in.UserName)
	in.RollNo = strings.TrimSpace(in.RollNo)
	switch {
	case in.UserName == "":
		return fmt.Errorf("%w: username is required", common.ErrorInvalidInput)
	case in.Password == "":
		return fmt.Errorf("%w: password is required", common.ErrorInvalidInput)
	case len(in.Password) > auth.MaxPasswordBytes:
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrorInvalidInput, auth.MaxPasswordBytes)
	case in.RollNo == "":
		return fmt.Errorf("%w: rollno is required", common.ErrorInvalidInput)
	}
	for _, r := range roles {
		if in.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role must be one of %s", common.ErrorInvalidInput, strings.Join(roles, ", "))
}

func redirectFor(role string) string {
	if role == common.RoleTeacher {
		return teacherRedirect
	}
	return studentRedirect
}
