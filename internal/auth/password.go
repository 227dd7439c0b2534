package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher はパスワードのハッシュ化と照合を行う。
// 新規ハッシュはbcryptで生成する。移行前のSHA-256ハッシュ（base64）も照合できる。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher はPasswordHasherを生成する。
// costが範囲外の場合はbcrypt.DefaultCostを使う。
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash はパスワードのbcryptハッシュを返す。
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify はパスワードが保存済みハッシュと一致するかを返す。
// 一致したハッシュが旧形式の場合、needsRehashがtrueになる。
func (h *PasswordHasher) Verify(storedHash, password string) (ok bool, needsRehash bool) {
	if storedHash == "" {
		return false, false
	}

	if isBcryptHash(storedHash) {
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil, false
	}

	legacy := legacyHash(password)
	if subtle.ConstantTimeCompare([]byte(storedHash), []byte(legacy)) == 1 {
		return true, true
	}
	return false, false
}

// isBcryptHash はbcrypt形式（$2a$, $2b$, $2y$）のハッシュかどうかを返す。
func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2")
}

// legacyHash は旧形式のハッシュ（ソルトなしSHA-256のbase64）を返す。
func legacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return base64.StdEncoding.EncodeToString(sum[:])
}
