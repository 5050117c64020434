package identity

import "fmt"

// Role 是账号的闭合角色枚举。
type Role string

const (
	RoleDeveloper Role = "DEVELOPER"
	RoleEmployer  Role = "EMPLOYER"
	RoleAdmin     Role = "ADMIN"
)

// ParseRole 校验角色取值。
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleDeveloper, RoleEmployer, RoleAdmin:
		return Role(raw), nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Identity 是请求级已验证身份，由 AuthService 产出，核心逻辑直接信任。
type Identity struct {
	UserID uint
	Role   Role
}

// Anonymous 判断身份是否为空（未认证）。
func (id Identity) Anonymous() bool {
	return id.UserID == 0
}
