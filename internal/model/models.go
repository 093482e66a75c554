package model

// All 返回需要 AutoMigrate 的模型
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &Like{}, &Comment{}}
}
