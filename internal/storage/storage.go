package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound           = errors.New("storage: not found")
	ErrUserExists         = errors.New("storage: username already taken")
	ErrInvalidCredentials = errors.New("storage: invalid username or password")
	// bcrypt 只接受不超过 72 字节的密码
	ErrPasswordTooLong    = errors.New("storage: password longer than 72 bytes")
)

// Category 文章分类，例如 World / Technology / Sports
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Article 采集入库的文章；link 全局唯一，入库后采集流程不再更新
type Article struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:500" json:"title"`
	Link        string     `gorm:"size:1024;uniqueIndex" json:"link"`
	Image       string     `gorm:"type:text" json:"image,omitempty"`
	Description string     `gorm:"size:500" json:"description"`
	Content     string     `gorm:"type:text" json:"content,omitempty"`
	Author      string     `gorm:"size:200" json:"author,omitempty"`
	PublishedAt *time.Time `gorm:"index" json:"publishedAt"`
	Source      string     `gorm:"size:128;index" json:"source"`
	CategoryID  *uint      `gorm:"index" json:"categoryId"`
	Category    *Category  `gorm:"constraint:OnDelete:SET NULL" json:"category,omitempty"`
	// ExternalID feed 提供的 guid，缺省时等于 link
	ExternalID string            `gorm:"column:guid;size:1024" json:"guid"`
	ExtraData  datatypes.JSONMap `gorm:"type:jsonb" json:"extraData,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// User 站点用户，仅用于收藏功能
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:254" json:"email,omitempty"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	IsActive     bool      `json:"isActive"`
	DateJoined   time.Time `gorm:"autoCreateTime" json:"dateJoined"`
}

// SavedArticle 用户收藏，(user, article) 唯一
type SavedArticle struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_saved_user_article" json:"userId"`
	ArticleID uint      `gorm:"uniqueIndex:idx_saved_user_article" json:"articleId"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Article   *Article  `gorm:"constraint:OnDelete:CASCADE" json:"article,omitempty"`
	SavedAt   time.Time `gorm:"index" json:"savedAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client

	mirror *safeMirror
}

// OpenDialector 根据驱动名选择数据库：postgres（默认）或 sqlite（本地开发）
func OpenDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "", "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("storage: unsupported database driver %q", driver)
	}
}

// NewStore 打开数据库并建表；redisAddr 为空时不启用缓存，mirror 为 nil 时不做镜像
func NewStore(dialector gorm.Dialector, redisAddr string, mirror Mirror) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&Category{}, &Article{}, &User{}, &SavedArticle{}); err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("warn: redis ping failed: %v", err)
		}
	}

	return &Store{DB: db, Redis: rdb, mirror: newSafeMirror(mirror)}, nil
}

// Close 关闭镜像库与 Redis 连接
func (s *Store) Close(ctx context.Context) {
	s.mirror.close(ctx)
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			log.Printf("warn: close redis: %v", err)
		}
	}
}

// quiet 用于高频的存在性检查，避免 record not found 刷屏
func (s *Store) quiet(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})
}
