package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"ac-server/internal/model"
	"ac-server/internal/repository"
	"ac-server/pkg/clock"
	"ac-server/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var codePattern = regexp.MustCompile(`\d{6}`)

type userFixture struct {
	svc    *UserService
	cache  *repository.Cache
	mailer *fakeMailer
	clock  *clock.Fake
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	cache, _, clk := newTestCache(t)
	mailer := &fakeMailer{}
	codes := NewVerificationService(cache, clk, 0, zap.NewNop(), nil)
	svc := NewUserService(cache, newSessions(clk), codes, mailer, clk, zap.NewNop())
	return &userFixture{svc: svc, cache: cache, mailer: mailer, clock: clk}
}

func (f *userFixture) lastCode(t *testing.T) string {
	t.Helper()
	code := codePattern.FindString(f.mailer.last(t).body)
	require.NotEmpty(t, code)
	return code
}

// registerVerified 注册并完成邮箱验证
func (f *userFixture) registerVerified(t *testing.T, username, email string) model.User {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, RegisterInput{Username: username, Email: email, Password: "secret1"})
	require.NoError(t, err)
	u, err := f.svc.VerifyEmail(ctx, email, f.lastCode(t))
	require.NoError(t, err)
	return u
}

func TestRegisterVerifyLogin(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	u, err := f.svc.Register(ctx, RegisterInput{Username: "steve", Email: "Steve@Example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.False(t, u.Verified)
	assert.Equal(t, "steve@example.com", u.Email)
	assert.NotEmpty(t, u.VerificationKey)
	assert.True(t, password.Verify("secret1", u.PasswordHash))

	mail := f.mailer.last(t)
	assert.Equal(t, "steve@example.com", mail.to)
	assert.Contains(t, mail.subject, "注册")

	_, _, err = f.svc.Login(ctx, "steve", "secret1")
	assert.ErrorIs(t, err, ErrNotVerified)

	_, err = f.svc.VerifyEmail(ctx, "steve@example.com", "000000x")
	assert.ErrorIs(t, err, ErrInvalidCode)

	u, err = f.svc.VerifyEmail(ctx, "steve@example.com", f.lastCode(t))
	require.NoError(t, err)
	assert.True(t, u.Verified)
	_, err = f.svc.VerifyEmail(ctx, "steve@example.com", "123456")
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	_, _, err = f.svc.Login(ctx, "steve", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, logged, err := f.svc.Login(ctx, "STEVE@example.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, logged.LastLoginAt)
	assert.Equal(t, f.clock.Now(), *logged.LastLoginAt)

	resolved, err := f.svc.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "steve", resolved.Username)
}

func TestRegisterRejectsDuplicatesAndBadInput(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.registerVerified(t, "steve", "steve@example.com")

	_, err := f.svc.Register(ctx, RegisterInput{Username: "steve", Email: "other@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	_, err = f.svc.Register(ctx, RegisterInput{Username: "alex", Email: "STEVE@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
	_, err = f.svc.Register(ctx, RegisterInput{Username: "al", Email: "al@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Register(ctx, RegisterInput{Username: "alex", Email: "not-an-email", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.svc.Register(ctx, RegisterInput{Username: "alex", Email: "alex@example.com", Password: "123"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRegisterMailFailureKeepsAccount(t *testing.T) {
	f := newUserFixture(t)
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.Register(context.Background(), RegisterInput{Username: "steve", Email: "steve@example.com", Password: "secret1"})
	require.Error(t, err)
	_, ok := f.cache.FindUser("steve")
	assert.True(t, ok)

	f.mailer.err = nil
	require.NoError(t, f.svc.ResendRegisterCode(context.Background(), "steve@example.com"))
}

func TestBindGameRole(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	steveUser := f.registerVerified(t, "steve", "steve@example.com")
	alex := f.registerVerified(t, "alex", "alex@example.com")

	_, err := f.svc.Player(steveUser)
	assert.ErrorIs(t, err, ErrNotBound)

	_, err = f.svc.BindGameRole(ctx, "steve", "wrong-key", "uuid-steve")
	assert.ErrorIs(t, err, ErrInvalidVerificationKey)

	bound, err := f.svc.BindGameRole(ctx, "steve", steveUser.VerificationKey, "uuid-steve")
	require.NoError(t, err)
	assert.Equal(t, "uuid-steve", bound.GameUUID)

	player, err := f.svc.Player(bound)
	require.NoError(t, err)
	assert.Equal(t, Player{UUID: "uuid-steve", Name: "steve"}, player)

	_, err = f.svc.BindGameRole(ctx, "steve", steveUser.VerificationKey, "uuid-other")
	assert.ErrorIs(t, err, ErrAlreadyBound)
	_, err = f.svc.BindGameRole(ctx, "alex", alex.VerificationKey, "uuid-steve")
	assert.ErrorIs(t, err, ErrGameRoleTaken)
	_, err = f.svc.BindGameRole(ctx, "ghost", "k", "uuid-ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBindAndLoginQQ(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.registerVerified(t, "steve", "steve@example.com")
	f.registerVerified(t, "alex", "alex@example.com")

	_, _, err := f.svc.LoginQQ(ctx, "open-1", "union-1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.BindQQ(ctx, "steve", model.QQBinding{OpenID: "open-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	u, err := f.svc.BindQQ(ctx, "steve", model.QQBinding{OpenID: "open-1", UnionID: "union-1", Nickname: "史蒂夫"})
	require.NoError(t, err)
	require.NotNil(t, u.QQ)
	assert.Equal(t, f.clock.Now(), u.QQ.BindTime)

	_, err = f.svc.BindQQ(ctx, "alex", model.QQBinding{OpenID: "open-1", UnionID: "union-2"})
	assert.ErrorIs(t, err, ErrQQTaken)

	_, logged, err := f.svc.LoginQQ(ctx, "open-1", "union-1")
	require.NoError(t, err)
	assert.Equal(t, "steve", logged.Username)
}

func TestQQUnionIDBelongsToOneAccount(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.registerVerified(t, "steve", "steve@example.com")
	f.registerVerified(t, "alex", "alex@example.com")

	_, err := f.svc.BindQQ(ctx, "steve", model.QQBinding{OpenID: "app1-open", UnionID: "union-1"})
	require.NoError(t, err)

	_, err = f.svc.BindQQ(ctx, "alex", model.QQBinding{OpenID: "app2-open", UnionID: "union-1"})
	assert.ErrorIs(t, err, ErrQQTaken)
	alex, ok := f.cache.FindUser("alex")
	require.True(t, ok)
	assert.Nil(t, alex.QQ)

	// 另一个应用的 openId 通过 unionId 找到同一账号
	_, logged, err := f.svc.LoginQQ(ctx, "app2-open", "union-1")
	require.NoError(t, err)
	assert.Equal(t, "steve", logged.Username)
}

func TestPasswordReset(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.registerVerified(t, "steve", "steve@example.com")
	token, _, err := f.svc.Login(ctx, "steve", "secret1")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.RequestPasswordReset(ctx, "nobody@example.com"), ErrNotFound)
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "steve@example.com"))
	code := f.lastCode(t)

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "steve@example.com", "999999x", "newpass"), ErrInvalidCode)
	require.NoError(t, f.svc.ResetPassword(ctx, "steve@example.com", code, "newpass"))
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "steve@example.com", code, "newpass2"), ErrInvalidCode)

	_, err = f.svc.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.svc.Login(ctx, "steve", "newpass")
	require.NoError(t, err)
}

func TestChangeEmail(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	f.registerVerified(t, "steve", "steve@example.com")
	f.registerVerified(t, "alex", "alex@example.com")

	assert.ErrorIs(t, f.svc.RequestEmailChange(ctx, "steve", "alex@example.com"), ErrAlreadyExists)
	require.NoError(t, f.svc.RequestEmailChange(ctx, "steve", "new@example.com"))
	mail := f.mailer.last(t)
	assert.Equal(t, "new@example.com", mail.to)

	_, err := f.svc.ChangeEmail(ctx, "steve", "new@example.com", "000000x")
	assert.ErrorIs(t, err, ErrInvalidCode)

	u, err := f.svc.ChangeEmail(ctx, "steve", "new@example.com", codePattern.FindString(mail.body))
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)

	_, ok := f.cache.FindUserByEmail("steve@example.com")
	assert.False(t, ok)
}
