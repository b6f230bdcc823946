package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/rushteam/shoprec/core"
)

// BrowsingHistory 是 browsing_history 表的行。
type BrowsingHistory struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;index:idx_history_user_viewed,priority:1"`
	ProductID string    `gorm:"column:product_id;type:varchar(64);not null"`
	ViewedAt  time.Time `gorm:"column:viewed_at;not null;index:idx_history_user_viewed,priority:2"`
}

func (BrowsingHistory) TableName() string { return "browsing_history" }

// OpenDB 按驱动名打开数据库："sqlite" 或 "postgres"。
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported history driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}
	return db, nil
}

// GormStore 是关系库实现的浏览历史。
type GormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore 自动迁移 browsing_history 表。
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&BrowsingHistory{}); err != nil {
		return nil, fmt.Errorf("migrate browsing_history: %w", err)
	}
	return &GormStore{db: db, now: time.Now}, nil
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) Append(ctx context.Context, userID, productID string) error {
	if err := validate(userID, productID); err != nil {
		return err
	}
	row := &BrowsingHistory{
		UserID:    userID,
		ProductID: productID,
		ViewedAt:  s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("history append %s: %w: %w", userID, core.ErrHistoryUnavailable, err)
	}
	return nil
}

func (s *GormStore) Recent(ctx context.Context, userID string, n int) ([]Entry, error) {
	var rows []BrowsingHistory
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("viewed_at DESC").
		Order("id DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("history recent %s: %w: %w", userID, core.ErrHistoryUnavailable, err)
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, Entry{UserID: r.UserID, ProductID: r.ProductID, ViewedAt: r.ViewedAt})
	}
	return out, nil
}
