package utils

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}

// PasswordProblems 返回不满足的规则；空切片表示通过
// 规则：至少 6 位，含数字、小写、大写字母；bcrypt 上限 72 字节
func PasswordProblems(pw string) []string {
	var out []string
	if len([]rune(pw)) < 6 {
		out = append(out, "must be at least 6 characters")
	}
	if len(pw) > 72 {
		out = append(out, "must be at most 72 bytes")
	}
	var digit, lower, upper bool
	for _, r := range pw {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		}
	}
	if !digit {
		out = append(out, "must contain a digit")
	}
	if !lower {
		out = append(out, "must contain a lowercase letter")
	}
	if !upper {
		out = append(out, "must contain an uppercase letter")
	}
	return out
}
