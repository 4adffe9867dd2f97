package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"ac-server/config"

	"go.uber.org/zap"
)

// Sender 邮件发送接口
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New 按配置创建发送器：未启用时只记录日志
func New(cfg config.MailConfig, log *zap.Logger) Sender {
	if !cfg.Enabled || cfg.Host == "" {
		return NewLogSender(log)
	}
	return NewSMTPSender(cfg)
}

// SMTPSender 通过SMTP发送纯文本邮件
type SMTPSender struct {
	addr string
	host string
	auth smtp.Auth
	from string
	now  func() time.Time
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender 创建SMTP发送器，配置了用户名时使用 PLAIN 认证
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	port := cfg.Port
	if port == 0 {
		port = 25
	}
	s := &SMTPSender{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
		host: cfg.Host,
		from: cfg.From,
		now:  time.Now,
		send: smtp.SendMail,
	}
	if s.from == "" {
		s.from = cfg.Username
	}
	if cfg.Username != "" {
		s.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return s
}

// Send 发送邮件；ctx 结束时不再等待结果
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := s.buildMessage(to, subject, body)
	done := make(chan error, 1)
	go func() {
		done <- s.send(s.addr, s.auth, s.from, []string{to}, msg)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp发送失败: %w", err)
		}
		return nil
	}
}

// buildMessage 构建 RFC 5322 邮件，正文使用 base64 编码的 UTF-8
func (s *SMTPSender) buildMessage(to, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.BEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", s.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: base64\r\n")
	buf.WriteString("\r\n")

	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	for len(encoded) > 76 {
		buf.WriteString(encoded[:76])
		buf.WriteString("\r\n")
		encoded = encoded[76:]
	}
	buf.WriteString(encoded)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// LogSender 只把邮件写入日志，用于开发环境或未配置SMTP时
type LogSender struct {
	log *zap.Logger
}

// NewLogSender 创建日志发送器
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log.Named("mail")}
}

// Send 记录邮件内容
func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info("邮件未启用，仅记录",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
