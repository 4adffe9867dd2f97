package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"ac-server/internal/model"
	"ac-server/internal/repository"
	"ac-server/internal/session"
	"ac-server/pkg/clock"
	"ac-server/pkg/password"

	"go.uber.org/zap"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
)

// RegisterInput 注册参数
type RegisterInput struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserService 玩家账号：注册、邮箱验证、登录、绑定游戏角色与QQ、找回密码、修改邮箱
type UserService struct {
	cache    *repository.Cache
	sessions session.Store
	codes    *VerificationService
	mailer   Mailer
	clock    clock.Clock
	locks    *keyedMutex
	log      *zap.Logger
}

// NewUserService 创建用户服务
func NewUserService(cache *repository.Cache, sessions session.Store, codes *VerificationService, mailer Mailer, clk clock.Clock, log *zap.Logger) *UserService {
	return &UserService{
		cache:    cache,
		sessions: sessions,
		codes:    codes,
		mailer:   mailer,
		clock:    clk,
		locks:    newKeyedMutex(),
		log:      log.Named("user"),
	}
}

// Register 注册未验证账号，并向邮箱发送注册验证码
func (s *UserService) Register(ctx context.Context, in RegisterInput) (model.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)
	if err := validateUsername(username); err != nil {
		return model.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return model.User{}, err
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLen {
		return model.User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}

	unlock := s.locks.Lock("account")
	defer unlock()

	if _, ok := s.cache.FindUser(username); ok {
		return model.User{}, fmt.Errorf("%w: username %s", ErrAlreadyExists, username)
	}
	if _, ok := s.cache.FindUserByEmail(email); ok {
		return model.User{}, fmt.Errorf("%w: email %s", ErrAlreadyExists, email)
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return model.User{}, err
	}
	user, err := s.cache.SaveUser(ctx, model.User{
		Username:        username,
		Email:           email,
		PasswordHash:    hash,
		VerificationKey: model.NewID(),
	})
	if err != nil {
		return user, err
	}
	s.log.Info("用户注册", zap.String("username", username))
	return user, s.sendCode(ctx, email, model.PurposeRegister)
}

// ResendRegisterCode 重新发送注册验证码
func (s *UserService) ResendRegisterCode(ctx context.Context, email string) error {
	user, ok := s.cache.FindUserByEmail(normalizeEmail(email))
	if !ok {
		return ErrNotFound
	}
	if user.Verified {
		return ErrAlreadyVerified
	}
	return s.sendCode(ctx, user.Email, model.PurposeRegister)
}

// VerifyEmail 消费注册验证码，账号变为已验证
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) (model.User, error) {
	user, ok := s.cache.FindUserByEmail(normalizeEmail(email))
	if !ok {
		return model.User{}, ErrNotFound
	}
	if user.Verified {
		return model.User{}, ErrAlreadyVerified
	}
	if err := s.consume(ctx, user.Email, model.PurposeRegister, code); err != nil {
		return model.User{}, err
	}
	updated, _, err := s.cache.UpdateUser(ctx, user.Username, func(u *model.User) (bool, error) {
		if u.Verified {
			return false, nil
		}
		u.Verified = true
		return true, nil
	})
	return updated, err
}

// Login 用户名或邮箱登录，要求邮箱已验证
func (s *UserService) Login(ctx context.Context, identifier, plain string) (string, model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || plain == "" {
		return "", model.User{}, fmt.Errorf("%w: identifier and password are required", ErrInvalidInput)
	}
	user, ok := s.cache.FindUserByUsernameOrEmail(identifier)
	if !ok || !password.Verify(plain, user.PasswordHash) {
		return "", model.User{}, ErrInvalidCredentials
	}
	if !user.Verified {
		return "", model.User{}, ErrNotVerified
	}
	return s.startSession(ctx, user)
}

// LoginQQ 已绑定QQ的账号登录，先按 openId 查找，找不到时按 unionId 查找
// 调用方必须是已完成QQ授权的可信网关
func (s *UserService) LoginQQ(ctx context.Context, openID, unionID string) (string, model.User, error) {
	user, ok := s.cache.FindUserByQQ(strings.TrimSpace(openID))
	if !ok {
		user, ok = s.cache.FindUserByQQUnion(strings.TrimSpace(unionID))
	}
	if !ok {
		return "", model.User{}, ErrNotFound
	}
	if !user.Verified {
		return "", model.User{}, ErrNotVerified
	}
	return s.startSession(ctx, user)
}

// Logout 注销令牌
func (s *UserService) Logout(ctx context.Context, token string) error {
	return s.sessions.Revoke(ctx, token)
}

// Resolve 令牌对应的用户
func (s *UserService) Resolve(ctx context.Context, token string) (model.User, error) {
	p, err := s.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if p.Kind != session.KindUser {
		return model.User{}, ErrForbidden
	}
	user, ok := s.cache.FindUser(p.Name)
	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get 按用户名获取
func (s *UserService) Get(username string) (model.User, error) {
	user, ok := s.cache.FindUser(username)
	if !ok {
		return model.User{}, ErrNotFound
	}
	return user, nil
}

// List 全部用户，按注册时间先后
func (s *UserService) List() []model.User {
	list := s.cache.Users()
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.Before(list[j].CreatedAt) })
	return list
}

// Delete 删除用户并注销其会话
func (s *UserService) Delete(ctx context.Context, username string) error {
	if err := s.cache.DeleteUser(ctx, username); err != nil {
		return err
	}
	return s.sessions.RevokePrincipal(ctx, session.Principal{Kind: session.KindUser, Name: username})
}

// BindGameRole 用验证密钥绑定游戏角色
// 每个账号只能绑定一次，每个游戏角色只能属于一个账号
func (s *UserService) BindGameRole(ctx context.Context, username, verificationKey, gameUUID string) (model.User, error) {
	gameUUID = strings.TrimSpace(gameUUID)
	if gameUUID == "" {
		return model.User{}, fmt.Errorf("%w: game uuid is required", ErrInvalidInput)
	}
	unlock := s.locks.Lock("game:" + gameUUID)
	defer unlock()

	if owner, ok := s.cache.FindUserByGameUUID(gameUUID); ok && owner.Username != username {
		return model.User{}, ErrGameRoleTaken
	}
	updated, _, err := s.cache.UpdateUser(ctx, username, func(u *model.User) (bool, error) {
		if u.GameBound() {
			return false, ErrAlreadyBound
		}
		if u.VerificationKey == "" || subtle.ConstantTimeCompare([]byte(u.VerificationKey), []byte(verificationKey)) != 1 {
			return false, ErrInvalidVerificationKey
		}
		u.GameUUID = gameUUID
		return true, nil
	})
	if err == nil {
		s.log.Info("绑定游戏角色", zap.String("username", username), zap.String("uuid", gameUUID))
	}
	return updated, err
}

// BindQQ 绑定QQ，一个 openId 或 unionId 只能属于一个账号
func (s *UserService) BindQQ(ctx context.Context, username string, binding model.QQBinding) (model.User, error) {
	binding.OpenID = strings.TrimSpace(binding.OpenID)
	binding.UnionID = strings.TrimSpace(binding.UnionID)
	if binding.OpenID == "" || binding.UnionID == "" {
		return model.User{}, fmt.Errorf("%w: openId and unionId are required", ErrInvalidInput)
	}
	unlock := s.locks.Lock("qq")
	defer unlock()

	if owner, ok := s.cache.FindUserByQQ(binding.OpenID); ok && owner.Username != username {
		return model.User{}, ErrQQTaken
	}
	if owner, ok := s.cache.FindUserByQQUnion(binding.UnionID); ok && owner.Username != username {
		return model.User{}, ErrQQTaken
	}
	binding.BindTime = s.clock.Now()
	updated, _, err := s.cache.UpdateUser(ctx, username, func(u *model.User) (bool, error) {
		b := binding
		u.QQ = &b
		return true, nil
	})
	if err == nil {
		s.log.Info("绑定QQ", zap.String("username", username))
	}
	return updated, err
}

// Player 已绑定游戏角色的用户对应的玩家
func (s *UserService) Player(user model.User) (Player, error) {
	if !user.GameBound() {
		return Player{}, ErrNotBound
	}
	return Player{UUID: user.GameUUID, Name: user.Username}, nil
}

// RequestPasswordReset 向账号邮箱发送重置密码验证码
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, ok := s.cache.FindUserByEmail(normalizeEmail(email))
	if !ok {
		return ErrNotFound
	}
	return s.sendCode(ctx, user.Email, model.PurposeResetPassword)
}

// ResetPassword 消费验证码后重置密码，并注销该用户的全部会话
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPlain string) error {
	if utf8.RuneCountInString(newPlain) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minPasswordLen)
	}
	user, ok := s.cache.FindUserByEmail(normalizeEmail(email))
	if !ok {
		return ErrNotFound
	}
	if err := s.consume(ctx, user.Email, model.PurposeResetPassword, code); err != nil {
		return err
	}
	hash, err := password.Hash(newPlain)
	if err != nil {
		return err
	}
	if _, _, err := s.cache.UpdateUser(ctx, user.Username, func(u *model.User) (bool, error) {
		u.PasswordHash = hash
		return true, nil
	}); err != nil {
		return err
	}
	return s.sessions.RevokePrincipal(ctx, session.Principal{Kind: session.KindUser, Name: user.Username})
}

// RequestEmailChange 向新邮箱发送修改邮箱验证码
func (s *UserService) RequestEmailChange(ctx context.Context, username, newEmail string) error {
	newEmail = normalizeEmail(newEmail)
	if err := validateEmail(newEmail); err != nil {
		return err
	}
	if _, ok := s.cache.FindUser(username); !ok {
		return ErrNotFound
	}
	if _, ok := s.cache.FindUserByEmail(newEmail); ok {
		return fmt.Errorf("%w: email %s", ErrAlreadyExists, newEmail)
	}
	return s.sendCode(ctx, newEmail, model.PurposeChangeEmail)
}

// ChangeEmail 消费新邮箱收到的验证码后修改邮箱
func (s *UserService) ChangeEmail(ctx context.Context, username, newEmail, code string) (model.User, error) {
	newEmail = normalizeEmail(newEmail)
	if err := validateEmail(newEmail); err != nil {
		return model.User{}, err
	}
	unlock := s.locks.Lock("account")
	defer unlock()

	if owner, ok := s.cache.FindUserByEmail(newEmail); ok && owner.Username != username {
		return model.User{}, fmt.Errorf("%w: email %s", ErrAlreadyExists, newEmail)
	}
	if _, ok := s.cache.FindUser(username); !ok {
		return model.User{}, ErrNotFound
	}
	if err := s.consume(ctx, newEmail, model.PurposeChangeEmail, code); err != nil {
		return model.User{}, err
	}
	updated, _, err := s.cache.UpdateUser(ctx, username, func(u *model.User) (bool, error) {
		if u.Email == newEmail {
			return false, nil
		}
		u.Email = newEmail
		return true, nil
	})
	return updated, err
}

func (s *UserService) startSession(ctx context.Context, user model.User) (string, model.User, error) {
	now := s.clock.Now()
	updated, _, err := s.cache.UpdateUser(ctx, user.Username, func(u *model.User) (bool, error) {
		u.LastLoginAt = &now
		return true, nil
	})
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("记录登录时间失败", zap.String("username", user.Username), zap.Error(err))
	}
	if updated.Username == "" {
		updated = user
	}
	token, err := s.sessions.Issue(ctx, session.Principal{Kind: session.KindUser, Name: user.Username})
	if err != nil {
		return "", model.User{}, err
	}
	return token, updated, nil
}

func (s *UserService) sendCode(ctx context.Context, email string, purpose model.CodePurpose) error {
	code, err := s.codes.Issue(ctx, email, purpose)
	if code == "" {
		return err
	}
	subject, body := codeMail(purpose, code, s.codes.ttl)
	if err := s.mailer.Send(ctx, email, subject, body); err != nil {
		s.log.Error("发送验证码邮件失败", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("发送验证码邮件失败: %w", err)
	}
	return nil
}

func (s *UserService) consume(ctx context.Context, email string, purpose model.CodePurpose, code string) error {
	ok, err := s.codes.Consume(ctx, email, purpose, strings.TrimSpace(code))
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

func codeMail(purpose model.CodePurpose, code string, ttl time.Duration) (string, string) {
	var action string
	switch purpose {
	case model.PurposeRegister:
		action = "注册账号"
	case model.PurposeResetPassword:
		action = "重置密码"
	case model.PurposeChangeEmail:
		action = "修改邮箱"
	}
	subject := fmt.Sprintf("【AC】%s验证码", action)
	body := fmt.Sprintf("您正在%s，验证码为 %s，%d 分钟内有效。如非本人操作请忽略本邮件。", action, code, int(ttl.Minutes()))
	return subject, body
}

func validateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLen || n > maxUsernameLen {
		return fmt.Errorf("%w: username must be %d-%d characters", ErrInvalidInput, minUsernameLen, maxUsernameLen)
	}
	if strings.ContainsAny(username, `/\@`) {
		return fmt.Errorf("%w: username contains invalid characters", ErrInvalidInput)
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	return nil
}
