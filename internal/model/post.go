package model

import "time"

// Post 内容主体，可带图片或视频
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Content   *string   `gorm:"type:text" json:"content"`
	ImageURL  *string   `json:"image_url"`
	VideoURL  *string   `json:"video_url"`
	AuthorID  uint      `gorm:"not null;index:idx_post_author" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt time.Time `gorm:"index:idx_post_created" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Post) TableName() string { return "posts" }

// EnrichedPost 附带互动统计的帖子视图，每次读取实时计算，不落库
type EnrichedPost struct {
	Post
	LikesCount    int64 `json:"likes_count"`
	CommentsCount int64 `json:"comments_count"`
	// IsLiked 仅在提供 viewer 时有意义，匿名访问恒为 false
	IsLiked bool `json:"is_liked"`
}
