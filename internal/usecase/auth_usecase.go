package usecase

import (
	"context"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const staffTokenTTL = 24 * time.Hour

type Clock interface {
	Now() time.Time
}

type AuthUsecase struct {
	username     string
	passwordHash []byte // 起動時にbcryptで作る。平文は保持しない
	jwtSecret    []byte
	clock        Clock
}

func NewAuthUsecase(username string, password string, jwtSecret string, clock Clock) (*AuthUsecase, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &AuthUsecase{
		username:     username,
		passwordHash: hash,
		jwtSecret:    []byte(jwtSecret),
		clock:        clock,
	}, nil
}

type StaffInfo struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type LoginOutput struct {
	Token string    `json:"token"`
	Admin StaffInfo `json:"admin"`
}

// Login は環境変数で設定されたスタッフ資格情報を検証して24hのJWTを発行する
func (u *AuthUsecase) Login(ctx context.Context, username string, password string) (LoginOutput, error) {
	if username == "" || password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "Username and password required")
	}
	if username != u.username {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	now := u.clock.Now()
	claims := jwt.MapClaims{
		"sub":      "1",
		"username": username,
		"role":     "admin",
		"iat":      now.Unix(),
		"exp":      now.Add(staffTokenTTL).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(u.jwtSecret)
	if err != nil {
		return LoginOutput{}, NewHTTPError(http.StatusInternalServerError, "Login failed")
	}

	return LoginOutput{
		Token: signed,
		Admin: StaffInfo{Username: username, Role: "admin"},
	}, nil
}
