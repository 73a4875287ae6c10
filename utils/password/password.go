package password

import (
	"golang.org/x/crypto/bcrypt"
)

/* ========================================================================
 * Password Hashing - 密码散列
 * ========================================================================
 * 职责: bcrypt 散列与校验
 * ======================================================================== */

// bcrypt 输入上限 72 字节, 请求校验层同样限制
const MaxLength = 72

// Hash 生成密码散列
func Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify 校验密码
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
