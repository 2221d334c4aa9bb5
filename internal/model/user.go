package model

import "time"

// 系统内置的三种角色。
const (
	RoleAdmin     = "ADMIN"
	RoleAnalytics = "ANALYTICS"
	RoleUser      = "USER"
)

// 角色可持有的权限。权限写入 JWT claims，由中间件在入口处校验。
const (
	PermissionUpload    = "upload"
	PermissionAnalytics = "analytics"
	PermissionPopular   = "popular"
)

// rolePermissions 定义角色到权限的映射。
// 普通用户只能使用检索与文档读取这类无需权限的接口。
var rolePermissions = map[string][]string{
	RoleAdmin:     {PermissionUpload, PermissionAnalytics, PermissionPopular},
	RoleAnalytics: {PermissionAnalytics, PermissionPopular},
	RoleUser:      {},
}

// PermissionsForRole 返回指定角色持有的权限列表。
// 未知角色返回空列表而不是错误，等同于无任何特殊权限。
func PermissionsForRole(role string) []string {
	perms, ok := rolePermissions[role]
	if !ok {
		return []string{}
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// User 定义了 users 表的 ORM 模型。
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"type:varchar(128);not null" json:"-"`
	Role      string    `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (User) TableName() string {
	return "users"
}
