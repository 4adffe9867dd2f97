package password

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Hash 生成密码哈希
func Hash(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify 校验密码
func Verify(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsHash 判断字符串是否已经是bcrypt哈希
func IsHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// HashIfPlain 已是哈希则原样返回，否则生成哈希
func HashIfPlain(s string) (string, error) {
	if IsHash(s) {
		return s, nil
	}
	return Hash(s)
}
