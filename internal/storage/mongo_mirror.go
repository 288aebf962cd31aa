package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoConnectTimeout = 5 * time.Second

	collNews       = "news"
	collCategories = "categories"
	collUsers      = "users"
	collSaved      = "saved_articles"
)

// MongoMirror 把主库的写入按数字 ID 复制到 MongoDB，方便用 Compass 等工具查看
type MongoMirror struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoMirror 连接并 ping MongoDB，连不上时返回错误
func NewMongoMirror(ctx context.Context, uri, database string, timeout time.Duration) (*MongoMirror, error) {
	if timeout <= 0 {
		timeout = mongoConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerSelectionTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return &MongoMirror{client: client, db: client.Database(database)}, nil
}

// OpenMirror 根据配置选择镜像实现；未配置或连接失败时退回 NopMirror，不影响启动
func OpenMirror(ctx context.Context, uri, database string) Mirror {
	if uri == "" {
		return NopMirror{}
	}
	m, err := NewMongoMirror(ctx, uri, database, mongoConnectTimeout)
	if err != nil {
		log.Printf("warn: mirror disabled: %v", err)
		return NopMirror{}
	}
	log.Printf("mirror enabled: mongodb database=%s", database)
	return m
}

func (m *MongoMirror) replace(ctx context.Context, coll string, id any, doc bson.M) error {
	_, err := m.db.Collection(coll).ReplaceOne(ctx, bson.M{"_id": id}, doc, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoMirror) UpsertCategory(ctx context.Context, c *Category) error {
	return m.replace(ctx, collCategories, int64(c.ID), categoryDoc(c))
}

func (m *MongoMirror) UpsertArticle(ctx context.Context, a *Article) error {
	return m.replace(ctx, collNews, int64(a.ID), articleDoc(a))
}

func (m *MongoMirror) UpsertUser(ctx context.Context, u *User) error {
	return m.replace(ctx, collUsers, int64(u.ID), userDoc(u))
}

func (m *MongoMirror) UpsertSaved(ctx context.Context, sa *SavedArticle) error {
	return m.replace(ctx, collSaved, savedKey(sa.UserID, sa.ArticleID), savedDoc(sa))
}

func (m *MongoMirror) DeleteSaved(ctx context.Context, userID, articleID uint) error {
	_, err := m.db.Collection(collSaved).DeleteOne(ctx, bson.M{"_id": savedKey(userID, articleID)})
	return err
}

func (m *MongoMirror) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func savedKey(userID, articleID uint) string {
	return fmt.Sprintf("%d_%d", userID, articleID)
}

func isoTime(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func categoryDoc(c *Category) bson.M {
	return bson.M{
		"_id":        int64(c.ID),
		"name":       c.Name,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
}

func articleDoc(a *Article) bson.M {
	now := time.Now().UTC().Format(time.RFC3339)
	doc := bson.M{
		"_id":         int64(a.ID),
		"title":       a.Title,
		"link":        a.Link,
		"image":       a.Image,
		"description": a.Description,
		"content":     a.Content,
		"author":      a.Author,
		"pub_date":    isoTime(a.PublishedAt),
		"source":      a.Source,
		"category":    nil,
		"category_id": nil,
		"guid":        a.ExternalID,
		"created_at":  now,
		"updated_at":  now,
	}
	if a.CategoryID != nil {
		doc["category_id"] = int64(*a.CategoryID)
	}
	if a.Category != nil {
		doc["category"] = a.Category.Name
	}
	return doc
}

func userDoc(u *User) bson.M {
	return bson.M{
		"_id":         int64(u.ID),
		"username":    u.Username,
		"email":       u.Email,
		"date_joined": isoTime(&u.DateJoined),
		"is_active":   u.IsActive,
		"created_at":  time.Now().UTC().Format(time.RFC3339),
	}
}

func savedDoc(sa *SavedArticle) bson.M {
	doc := bson.M{
		"_id":        savedKey(sa.UserID, sa.ArticleID),
		"user_id":    int64(sa.UserID),
		"news_id":    int64(sa.ArticleID),
		"saved_date": isoTime(&sa.SavedAt),
		"created_at": time.Now().UTC().Format(time.RFC3339),
	}
	if sa.User != nil {
		doc["username"] = sa.User.Username
	}
	if sa.Article != nil {
		doc["news_title"] = sa.Article.Title
		doc["news_link"] = sa.Article.Link
	}
	return doc
}
