// Package uri parses the free-form target strings accepted on the command line.
//
// The grammar is deliberately loose: every component is optional, so any valid
// UTF-8 string parses into some URI.
//
//	[scheme://][username:password@]host[:port][/path][?query][#fragment]
package uri

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// DefaultPath is used when the target carries no path.
const DefaultPath = "/"

// ErrMalformed is returned for input that is not valid UTF-8.
var ErrMalformed = errors.New("uri: target is not valid UTF-8")

var (
	targetPattern = regexp.MustCompile(`(?s)^` +
		`(?:(?P<scheme>[^:/?#]+)://)?` +
		`(?:(?P<username>[^:@/?#]+):(?P<password>[^@/?#]+)@)?` +
		`(?P<host>[^/?#]*)` +
		`(?P<path>/[^?#]*)?` +
		`(?:\?(?P<query>[^#]*))?` +
		`(?:#(?P<fragment>.*))?$`)

	portSuffix = regexp.MustCompile(`^(.*):(\d+)$`)
)

// URI is the structured form of a target string.
type URI struct {
	Scheme   string
	Username string
	Password string
	// Host is domain plus the optional ":port" suffix, exactly as written.
	// Transports connect to this string.
	Host     string
	Domain   string
	Port     int
	Path     string
	Query    string
	Fragment string
}

// Parse splits raw into its components. Missing components are left empty,
// except Path which defaults to "/".
func Parse(raw string) (URI, error) {
	if !utf8.ValidString(raw) {
		return URI{}, ErrMalformed
	}

	u := URI{Path: DefaultPath}

	m := targetPattern.FindStringSubmatch(raw)
	if m == nil {
		// Unreachable for valid UTF-8, every group is optional.
		return u, nil
	}

	for i, name := range targetPattern.SubexpNames() {
		switch name {
		case "scheme":
			u.Scheme = m[i]
		case "username":
			u.Username = m[i]
		case "password":
			u.Password = m[i]
		case "host":
			u.Host = m[i]
		case "path":
			if m[i] != "" {
				u.Path = m[i]
			}
		case "query":
			u.Query = m[i]
		case "fragment":
			u.Fragment = m[i]
		}
	}

	u.Domain = u.Host
	if pm := portSuffix.FindStringSubmatch(u.Host); pm != nil {
		// Digits that overflow an int stay part of the domain.
		if port, err := strconv.Atoi(pm[2]); err == nil {
			u.Domain = pm[1]
			u.Port = port
		}
	}

	return u, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and package-level values.
func MustParse(raw string) URI {
	u, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return u
}

// String rebuilds a canonical target string from the components.
func (u URI) String() string {
	var b strings.Builder

	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteString("://")
	}
	if u.Username != "" || u.Password != "" {
		b.WriteString(u.Username)
		b.WriteByte(':')
		b.WriteString(u.Password)
		b.WriteByte('@')
	}
	b.WriteString(u.Host)
	if u.Path != "" {
		b.WriteString(u.Path)
	}
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.Fragment)
	}

	return b.String()
}

// Authority returns the address to dial. When the target has no port and
// defaultPort is positive, the default is appended to the domain.
func (u URI) Authority(defaultPort int) string {
	if u.Port == 0 && defaultPort > 0 && u.Domain != "" && !strings.HasSuffix(u.Host, ":") {
		return u.Domain + ":" + strconv.Itoa(defaultPort)
	}
	return u.Host
}

// RequestTarget returns the origin-form request target: path plus query.
func (u URI) RequestTarget() string {
	path := u.Path
	if path == "" {
		path = DefaultPath
	}
	if u.Query == "" {
		return path
	}
	return path + "?" + u.Query
}
