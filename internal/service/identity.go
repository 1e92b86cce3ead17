package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"internship-portal/internal/domain"
	"internship-portal/pkg/utils"
)

type IdentityOptions struct {
	ResetTTL        time.Duration
	MaxFailedLogins int
	LockoutFor      time.Duration
}

func (o IdentityOptions) withDefaults() IdentityOptions {
	if o.ResetTTL <= 0 {
		o.ResetTTL = time.Hour
	}
	if o.MaxFailedLogins <= 0 {
		o.MaxFailedLogins = 5
	}
	if o.LockoutFor <= 0 {
		o.LockoutFor = 5 * time.Minute
	}
	return o
}

type IdentityService struct {
	users  domain.UserRepository
	tokens domain.ResetTokenStore
	opt    IdentityOptions
	log    *zap.Logger
	now    func() time.Time
}

func NewIdentityService(users domain.UserRepository, tokens domain.ResetTokenStore, opt IdentityOptions, log *zap.Logger) *IdentityService {
	return &IdentityService{users: users, tokens: tokens, opt: opt.withDefaults(), log: log, now: time.Now}
}

type RegisterInput struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName" binding:"required"`
	LastName        string `json:"lastName" binding:"required"`
	Role            string `json:"role"`
}

// Register 自助注册只能是 Intern/Employer，默认未审核
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	ve := domain.NewValidationError()
	if _, err := mail.ParseAddress(in.Email); err != nil || in.Email == "" {
		ve.Add("email", "must be a valid email address")
	}
	if in.FirstName == "" || len(in.FirstName) > 64 {
		ve.Add("firstName", "is required (max 64)")
	}
	if in.LastName == "" || len(in.LastName) > 64 {
		ve.Add("lastName", "is required (max 64)")
	}
	if p := utils.PasswordProblems(in.Password); len(p) > 0 {
		ve.Add("password", strings.Join(p, ", "))
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		ve.Add("confirmPassword", "does not match password")
	}
	if err := ve.OrNil(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	role := domain.SelfServiceRole(in.Role)
	u := &domain.User{
		ID:           utils.NewID(),
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		IsApproved:   false,
	}
	if err := s.users.Create(ctx, u, role); err != nil {
		return nil, err
	}
	registrationsTotal.WithLabelValues(string(role)).Inc()
	s.log.Info("user registered", zap.String("uid", u.ID), zap.String("role", string(role)))
	return u, nil
}

type LoginResult struct {
	User     *domain.User
	Role     domain.Role
	Redirect string
}

// Authenticate 校验顺序：锁定 → 密码 → 审核状态
func (s *IdentityService) Authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	res, err := s.authenticate(ctx, email, password)
	switch {
	case err == nil:
		loginTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, domain.ErrInvalidCredentials):
		loginTotal.WithLabelValues("invalid").Inc()
	case errors.Is(err, domain.ErrLockedOut):
		loginTotal.WithLabelValues("locked").Inc()
	case errors.Is(err, domain.ErrPendingApproval):
		loginTotal.WithLabelValues("pending").Inc()
	default:
		loginTotal.WithLabelValues("error").Inc()
	}
	return res, err
}

func (s *IdentityService) authenticate(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrInvalidCredentials
	}
	now := s.now()
	if u.Locked(now) {
		return nil, domain.ErrLockedOut
	}

	if !utils.CheckPassword(password, u.PasswordHash) {
		until := now.Add(s.opt.LockoutFor)
		locked, err := s.users.RecordFailedLogin(ctx, u.ID, s.opt.MaxFailedLogins, until)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		if err != nil {
			return nil, err
		}
		if locked {
			s.log.Warn("account locked", zap.String("uid", u.ID), zap.Time("until", until))
			return nil, domain.ErrLockedOut
		}
		return nil, domain.ErrInvalidCredentials
	}

	if u.FailedLogins != 0 || u.LockedUntil != nil {
		if err := s.users.ClearFailedLogins(ctx, u.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrInvalidCredentials
			}
			return nil, err
		}
		u.FailedLogins, u.LockedUntil = 0, nil
	}
	if !u.IsApproved {
		return nil, domain.ErrPendingApproval
	}
	role, _ := domain.PrimaryRole(u.RoleList())
	return &LoginResult{User: u, Role: role, Redirect: role.HomePath()}, nil
}

// CurrentRole 鉴权中间件每次请求调用；用户删除/未审核立即生效
func (s *IdentityService) CurrentRole(ctx context.Context, uid string) (domain.Role, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", domain.ErrNotFound
	}
	if !u.IsApproved {
		return "", domain.ErrPendingApproval
	}
	role, ok := domain.PrimaryRole(u.RoleList())
	if !ok {
		return "", domain.ErrForbidden
	}
	return role, nil
}

func (s *IdentityService) Me(ctx context.Context, uid string) (*domain.User, error) {
	return s.mustUser(ctx, uid)
}

func (s *IdentityService) RolesOf(ctx context.Context, uid string) ([]domain.Role, error) {
	if _, err := s.mustUser(ctx, uid); err != nil {
		return nil, err
	}
	return s.users.Roles(ctx, uid)
}

func (s *IdentityService) AssignRole(ctx context.Context, uid string, role domain.Role) error {
	if !role.Valid() {
		return domain.Invalid("role", "unknown role")
	}
	if _, err := s.mustUser(ctx, uid); err != nil {
		return err
	}
	return s.users.AddRole(ctx, uid, role)
}

// SetRole 全量替换：移除所有角色后只保留 role
func (s *IdentityService) SetRole(ctx context.Context, uid string, role domain.Role) error {
	if !role.Valid() {
		return domain.Invalid("role", "unknown role")
	}
	if _, err := s.mustUser(ctx, uid); err != nil {
		return err
	}
	if err := s.users.ReplaceRoles(ctx, uid, role); err != nil {
		return err
	}
	s.log.Info("role changed", zap.String("uid", uid), zap.String("role", string(role)))
	return nil
}

func (s *IdentityService) Approve(ctx context.Context, uid string) error {
	u, err := s.mustUser(ctx, uid)
	if err != nil {
		return err
	}
	if u.IsApproved {
		return nil
	}
	if err := s.users.SetApproved(ctx, u.ID); err != nil {
		return err
	}
	s.log.Info("user approved", zap.String("uid", u.ID))
	return nil
}

func (s *IdentityService) DeleteUser(ctx context.Context, uid string) error {
	if err := s.users.Delete(ctx, uid); err != nil {
		return err
	}
	s.log.Info("user deleted", zap.String("uid", uid))
	return nil
}

// IssueResetToken 返回明文令牌，存储端只保留摘要
func (s *IdentityService) IssueResetToken(ctx context.Context, uid string) (string, error) {
	tok, err := utils.NewToken()
	if err != nil {
		return "", err
	}
	if err := s.tokens.Put(ctx, utils.HashToken(tok), uid, s.opt.ResetTTL); err != nil {
		return "", err
	}
	return tok, nil
}

// ForgotPassword 不存在的邮箱返回空令牌且不报错，避免枚举账号
func (s *IdentityService) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil || u == nil {
		return "", err
	}
	return s.IssueResetToken(ctx, u.ID)
}

type ResetInput struct {
	Email           string `json:"email" binding:"required"`
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

func (s *IdentityService) ResetPassword(ctx context.Context, in ResetInput) error {
	ve := domain.NewValidationError()
	if in.Password != in.ConfirmPassword {
		ve.Add("confirmPassword", "does not match password")
	}
	if p := utils.PasswordProblems(in.Password); len(p) > 0 {
		ve.Add("password", strings.Join(p, ", "))
	}
	if err := ve.OrNil(); err != nil {
		return err
	}

	u, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return err
	}
	if u == nil {
		return domain.ErrInvalidToken
	}
	uid, err := s.tokens.Take(ctx, utils.HashToken(strings.TrimSpace(in.Token)))
	if err != nil {
		return err
	}
	if uid != u.ID {
		return domain.ErrInvalidToken
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.SetPassword(ctx, u.ID, hash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidToken
		}
		return err
	}
	s.log.Info("password reset", zap.String("uid", u.ID))
	return nil
}

// SeedAdmin 幂等：确保存在已审核的 Admin 账号
func (s *IdentityService) SeedAdmin(ctx context.Context, email, password, first, last string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u != nil {
		if !u.IsApproved {
			if err := s.users.SetApproved(ctx, u.ID); err != nil {
				return err
			}
		}
		return s.users.AddRole(ctx, u.ID, domain.RoleAdmin)
	}

	if p := utils.PasswordProblems(password); len(p) > 0 {
		s.log.Warn("seed admin password is weak", zap.Strings("problems", p))
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	u = &domain.User{
		ID:           utils.NewID(),
		Email:        email,
		FirstName:    first,
		LastName:     last,
		PasswordHash: hash,
		IsApproved:   true,
	}
	if err := s.users.Create(ctx, u, domain.RoleAdmin); err != nil {
		return err
	}
	s.log.Info("admin seeded", zap.String("email", email))
	return nil
}

func (s *IdentityService) mustUser(ctx context.Context, uid string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %s: %w", uid, domain.ErrNotFound)
	}
	return u, nil
}
