package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"ac-server/internal/model"
	"ac-server/internal/repository"
	"ac-server/pkg/clock"
	"ac-server/pkg/metrics"

	"go.uber.org/zap"
)

// DefaultCodeTTL 验证码有效期
const DefaultCodeTTL = 5 * time.Minute

// VerificationService 邮箱验证码：6位数字，固定有效期，一次性使用
type VerificationService struct {
	cache   *repository.Cache
	clock   clock.Clock
	ttl     time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewVerificationService 创建验证码服务
func NewVerificationService(cache *repository.Cache, clk clock.Clock, ttl time.Duration, log *zap.Logger, m *metrics.Metrics) *VerificationService {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &VerificationService{cache: cache, clock: clk, ttl: ttl, log: log.Named("verification"), metrics: m}
}

// Issue 生成新验证码，同一 (email, purpose) 的旧验证码随即失效
// 落盘失败时验证码与错误一并返回
func (s *VerificationService) Issue(ctx context.Context, email string, purpose model.CodePurpose) (string, error) {
	email = normalizeEmail(email)
	if email == "" || !purpose.Valid() {
		return "", fmt.Errorf("%w: email and purpose are required", ErrInvalidInput)
	}
	code, err := randomCode()
	if err != nil {
		return "", err
	}
	now := s.clock.Now()
	_, err = s.cache.ReplaceEmailCode(ctx, model.EmailCode{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	})
	if err != nil {
		// 缓存中新验证码已生效，落盘失败时仍返回验证码
		s.log.Error("保存验证码失败", zap.String("email", email), zap.Error(err))
		return code, err
	}
	return code, nil
}

// Validate 验证码存在、完全匹配且未过期时返回 true
func (s *VerificationService) Validate(email string, purpose model.CodePurpose, code string) bool {
	entry, ok := s.cache.FindEmailCode(normalizeEmail(email), purpose)
	if !ok {
		return false
	}
	return s.matches(entry, code)
}

// Consume 校验通过后删除验证码
func (s *VerificationService) Consume(ctx context.Context, email string, purpose model.CodePurpose, code string) (bool, error) {
	return s.cache.ConsumeEmailCode(ctx, normalizeEmail(email), purpose, func(entry model.EmailCode) bool {
		return s.matches(entry, code)
	})
}

// Sweep 清理所有过期验证码
func (s *VerificationService) Sweep(ctx context.Context) (int, error) {
	n, err := s.cache.DeleteExpiredEmailCodes(ctx, s.clock.Now())
	s.metrics.CodesRemoved(n)
	return n, err
}

// Run 定期清理过期验证码，直到 ctx 结束
func (s *VerificationService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.Sweep(ctx)
			if err != nil {
				s.log.Error("清理过期验证码失败", zap.Error(err))
				continue
			}
			if n > 0 {
				s.log.Debug("清理过期验证码", zap.Int("count", n))
			}
		}
	}
}

func (s *VerificationService) matches(entry model.EmailCode, code string) bool {
	if entry.Expired(s.clock.Now()) {
		return false
	}
	return len(code) == len(entry.Code) && subtle.ConstantTimeCompare([]byte(code), []byte(entry.Code)) == 1
}

// randomCode 6位数字验证码
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("生成验证码失败: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
