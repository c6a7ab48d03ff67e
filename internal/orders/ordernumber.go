package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DefaultOrderNumberPrefix is used when no prefix is configured.
const DefaultOrderNumberPrefix = "SO"

// NumberAllocator hands out human-readable order numbers such as
// SO-2026-000123. Numbers are unique per installation, not per salon.
type NumberAllocator interface {
	Next(ctx context.Context, tx *gorm.DB) (string, error)
}

type sequenceAllocator struct {
	db     *gorm.DB
	prefix string
	now    func() time.Time
}

// NewNumberAllocator builds an allocator backed by the order_number_seq
// database sequence.
func NewNumberAllocator(db *gorm.DB, prefix string) NumberAllocator {
	prefix = strings.TrimSpace(strings.ToUpper(prefix))
	if prefix == "" {
		prefix = DefaultOrderNumberPrefix
	}
	return &sequenceAllocator{db: db, prefix: prefix, now: time.Now}
}

func (a *sequenceAllocator) Next(ctx context.Context, tx *gorm.DB) (string, error) {
	conn := a.db
	if tx != nil {
		conn = tx
	}

	var next int64
	err := conn.WithContext(ctx).Raw("SELECT nextval('order_number_seq')").Scan(&next).Error
	if err != nil {
		return "", fmt.Errorf("allocate order number: %w", err)
	}
	return FormatOrderNumber(a.prefix, a.now().Year(), next), nil
}

// FormatOrderNumber renders the canonical order number shape.
func FormatOrderNumber(prefix string, year int, sequence int64) string {
	return fmt.Sprintf("%s-%d-%06d", prefix, year, sequence)
}
