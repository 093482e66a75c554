package repository

import (
	"context"

	"gorm.io/gorm"
)

type postCount struct {
	PostID uint
	Total  int64
}

// countByPosts SELECT post_id, COUNT(*) ... WHERE post_id IN (...) GROUP BY post_id
func countByPosts(ctx context.Context, db *gorm.DB, m interface{}, postIDs []uint) (map[uint]int64, error) {
	ids := uniqueIDs(postIDs)
	out := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []postCount
	if err := db.WithContext(ctx).
		Model(m).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", ids).
		Group("post_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.PostID] = row.Total
	}
	return out, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	res := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		res = append(res, id)
	}
	return res
}
