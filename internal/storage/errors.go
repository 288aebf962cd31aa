package storage

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL 中与锁竞争相关的 SQLSTATE
var lockSQLStates = map[string]struct{}{
	"40P01": {}, // deadlock_detected
	"40001": {}, // serialization_failure
	"55P03": {}, // lock_not_available
	"55006": {}, // object_in_use
}

// IsLockError 判断是否为可重试的锁竞争错误；约束冲突、表结构错误等不算
func IsLockError(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		_, ok := lockSQLStates[pgErr.Code]
		return ok
	}
	// SQLite 没有 SQLSTATE，只能按文案判断
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "lock timeout") ||
		strings.Contains(msg, "deadlock")
}

// IsUniqueViolation 判断是否为唯一约束冲突
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
