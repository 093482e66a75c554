// Package dbstats 统计 gorm 发出的读语句数，用于对比不同读取策略的往返次数
package dbstats

import (
	"sync/atomic"

	"gorm.io/gorm"
)

const callbackName = "dbstats:count"

// Counter 记录 *gorm.DB 上执行的 query/row 语句
type Counter struct {
	queries atomic.Int64
}

// Attach 在 query 和 row 回调链上注册计数
func Attach(db *gorm.DB) (*Counter, error) {
	c := &Counter{}
	inc := func(tx *gorm.DB) {
		if !tx.DryRun {
			c.queries.Add(1)
		}
	}
	if err := db.Callback().Query().After("gorm:query").Register(callbackName, inc); err != nil {
		return nil, err
	}
	if err := db.Callback().Row().After("gorm:row").Register(callbackName, inc); err != nil {
		return nil, err
	}
	return c, nil
}

// Queries 自上次 Reset 以来的读语句数
func (c *Counter) Queries() int64 { return c.queries.Load() }

// Reset 清零
func (c *Counter) Reset() { c.queries.Store(0) }
