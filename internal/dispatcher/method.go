package dispatcher

import (
	"regexp"
	"strings"
)

// methodPattern accepts exactly "<object>.<action>" with lowercase ASCII letters on both sides
var methodPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+$`)

// Method is a parsed API method name
// example: "dashboard.get" -> Method{Object: "dashboard", Action: "get"}
type Method struct {
	Object string
	Action string
}

// String gives the dotted form of the method
func (m Method) String() string {
	return m.Object + "." + m.Action
}

// ParseMethod validates name and splits it into object and action
func ParseMethod(name string) (Method, error) {
	if !methodPattern.MatchString(name) {
		return Method{}, &InvalidMethodError{Name: name}
	}
	parts := strings.SplitN(name, ".", 2)
	return Method{Object: parts[0], Action: parts[1]}, nil
}

// IsValidMethod reports whether name follows the "<object>.<action>" convention
func IsValidMethod(name string) bool {
	return methodPattern.MatchString(name)
}
