package gate

import (
	"path"
	"strings"
)

// DefaultPublicPaths are reachable without a token.
var DefaultPublicPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
}

// Policy is the static allowlist of paths that bypass authentication.
// Entries match the exact path or any path below it, so "/api/auth/login"
// covers "/api/auth/login/" but not "/api/auth/loginx". The root "/" is
// never accepted as an entry.
type Policy struct {
	public []string
}

func NewPolicy(paths ...string) Policy {
	p := Policy{}
	for _, e := range paths {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		e = path.Clean("/" + e)
		if e == "/" {
			continue
		}
		p.public = append(p.public, e)
	}
	return p
}

func (p Policy) Paths() []string {
	return append([]string(nil), p.public...)
}

func (p Policy) IsPublic(requestPath string) bool {
	if requestPath == "" {
		return false
	}
	cleaned := path.Clean(requestPath)
	for _, e := range p.public {
		if cleaned == e || strings.HasPrefix(cleaned, e+"/") {
			return true
		}
	}
	return false
}
