package zabbix

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a Zabbix server version as reported by apiinfo.version
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses "6.4.0", "7.0" or "5.0.4rc1"
func ParseVersion(s string) (Version, error) {
	var v Version
	parts := strings.SplitN(strings.TrimSpace(s), ".", 3)
	if len(parts) < 2 {
		return v, fmt.Errorf("Invalid zabbix version %q", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		// cut suffixes like "rc1" or "beta2"
		end := 0
		for end < len(p) && p[end] >= '0' && p[end] <= '9' {
			end++
		}
		if end == 0 {
			return v, fmt.Errorf("Invalid zabbix version %q", s)
		}
		n, err := strconv.Atoi(p[:end])
		if err != nil {
			return v, fmt.Errorf("Invalid zabbix version %q: %v", s, err)
		}
		nums[i] = n
	}
	return Version{nums[0], nums[1], nums[2]}, nil
}

// AtLeast reports whether v >= major.minor
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// loginUserField is "username" since 5.4, "user" before
func (v Version) loginUserField() string {
	if v.AtLeast(5, 4) {
		return "username"
	}
	return "user"
}

// bearerAuth reports whether the token travels in the Authorization header (6.4+)
// instead of the "auth" member of the request
func (v Version) bearerAuth() bool {
	return v.AtLeast(6, 4)
}
