package model

import "github.com/google/uuid"

// NewID 返回随机（非递增）的元素/页面 id。
// 使用 UUID v4，进程生命周期内碰撞概率可忽略。
func NewID() string {
	return uuid.NewString()
}
