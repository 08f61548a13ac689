package service

// Actor 当前操作人
type Actor struct {
	UserID uint
}

// SystemActor 定时任务等系统操作使用的身份
var SystemActor = Actor{}

// Authenticated 是否为已登录用户
func (a Actor) Authenticated() bool {
	return a.UserID > 0
}
