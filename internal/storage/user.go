package storage

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const maxPasswordBytes = 72

// CreateUser 注册用户，密码以 bcrypt 存储
func (s *Store) CreateUser(ctx context.Context, username, password, email string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errors.New("storage: username and password are required")
	}
	if len(password) > maxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username:     username,
		Email:        strings.TrimSpace(email),
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		if IsUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	s.mirror.upsertUser(ctx, u)
	return u, nil
}

// AuthenticateUser 校验用户名与密码；用户不存在与密码错误返回同一个错误
func (s *Store) AuthenticateUser(ctx context.Context, username, password string) (*User, error) {
	u := &User{}
	err := s.quiet(ctx).Where("username = ?", strings.TrimSpace(username)).First(u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
