package model

import "strings"

// Capability 后台权限，封闭枚举
type Capability int

const (
	CapAnnouncement Capability = iota + 1
	CapCompensation
	CapWhitelist
	CapLog
	CapUser
)

// PermissionWildcard 拥有全部权限
const PermissionWildcard = "ac.web.*"

var capabilityNames = map[Capability]string{
	CapAnnouncement: "ac.web.announcement",
	CapCompensation: "ac.web.compensation",
	CapWhitelist:    "ac.web.whitelist",
	CapLog:          "ac.web.log",
	CapUser:         "ac.web.user",
}

// AllCapabilities 所有具体权限，按枚举顺序
func AllCapabilities() []Capability {
	return []Capability{CapAnnouncement, CapCompensation, CapWhitelist, CapLog, CapUser}
}

// String 权限字符串
func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCapability 解析单个权限字符串，通配符和未知字符串返回 false
func ParseCapability(s string) (Capability, bool) {
	s = strings.TrimSpace(s)
	for c, name := range capabilityNames {
		if name == s {
			return c, true
		}
	}
	return 0, false
}

// CapabilitySet 权限集合；All 为 true 时拥有全部权限
type CapabilitySet struct {
	All  bool
	caps map[Capability]struct{}
}

// NewCapabilitySet 由具体权限构造集合
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := CapabilitySet{caps: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		set.caps[c] = struct{}{}
	}
	return set
}

// WildcardSet 拥有全部权限的集合
func WildcardSet() CapabilitySet {
	return CapabilitySet{All: true}
}

// ParseCapabilities 解析持久化的权限字符串列表，未知字符串忽略
func ParseCapabilities(perms []string) CapabilitySet {
	set := NewCapabilitySet()
	for _, p := range perms {
		if strings.TrimSpace(p) == PermissionWildcard {
			set.All = true
			continue
		}
		if c, ok := ParseCapability(p); ok {
			set.caps[c] = struct{}{}
		}
	}
	return set
}

// Grants 是否拥有权限 c
func (s CapabilitySet) Grants(c Capability) bool {
	if s.All {
		return true
	}
	_, ok := s.caps[c]
	return ok
}

// Strings 转回权限字符串列表，用于持久化
func (s CapabilitySet) Strings() []string {
	if s.All {
		return []string{PermissionWildcard}
	}
	out := make([]string, 0, len(s.caps))
	for _, c := range AllCapabilities() {
		if _, ok := s.caps[c]; ok {
			out = append(out, c.String())
		}
	}
	return out
}
