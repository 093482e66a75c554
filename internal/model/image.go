package model

// StoredImage 上传处理后落地的图片引用
type StoredImage struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}
