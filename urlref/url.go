// Package urlref parses the small family of URL forms gorushi's fetch
// pipeline understands: http, https, file, data, and about, plus an
// optional view-source: wrapper around any of them.
package urlref

import (
	"strconv"
	"strings"

	"golang.org/x/net/idna"

	"github.com/kojima/gorushi"
)

// Scheme identifies which of the handful of URL forms a UrlRef carries.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
	SchemeFile  Scheme = "file"
	SchemeData  Scheme = "data"
	SchemeAbout Scheme = "about"
)

func defaultPort(s Scheme) int {
	switch s {
	case SchemeHTTPS:
		return 443
	default:
		return 80
	}
}

// UrlRef is an immutable parsed reference to a resource. Its fields carry
// meaning only for the Scheme they apply to: a data UrlRef carries only
// Content, a file UrlRef carries only Path, and a network UrlRef carries
// Host+Port+Path.
type UrlRef struct {
	Scheme     Scheme
	Host       string
	Port       int
	Path       string
	Content    string
	ViewSource bool
}

// Parse parses input into a UrlRef, or fails with an ErrMalformedURL or
// ErrUnsupportedScheme *gorushi.Error.
func Parse(input string) (*UrlRef, error) {
	const op = "urlref.Parse"

	ref := &UrlRef{}
	if rest, ok := strings.CutPrefix(input, "view-source:"); ok {
		ref.ViewSource = true
		input = rest
	}

	if rest, ok := strings.CutPrefix(input, "data:"); ok {
		ref.Scheme = SchemeData
		_, content, found := strings.Cut(rest, ",")
		if !found {
			ref.Content = rest
		} else {
			ref.Content = content
		}
		return ref, nil
	}

	if rest, ok := strings.CutPrefix(input, "about:"); ok {
		ref.Scheme = SchemeAbout
		ref.Path = rest
		return ref, nil
	}

	scheme, rest, found := strings.Cut(input, "://")
	if !found {
		if strings.HasPrefix(input, "/") {
			ref.Scheme = SchemeFile
			ref.Path = input
			return ref, nil
		}
		return nil, &gorushi.Error{Op: op, Kind: gorushi.ErrMalformedURL, Message: input}
	}

	switch Scheme(scheme) {
	case SchemeFile:
		ref.Scheme = SchemeFile
		rest = strings.TrimPrefix(rest, "//")
		if !strings.HasPrefix(rest, "/") {
			rest = "/" + rest
		}
		ref.Path = rest
		return ref, nil
	case SchemeHTTP, SchemeHTTPS:
		ref.Scheme = Scheme(scheme)
	default:
		return nil, &gorushi.Error{Op: op, Kind: gorushi.ErrUnsupportedScheme, Message: scheme}
	}

	hostport, path, found := strings.Cut(rest, "/")
	if !found {
		ref.Path = "/"
	} else {
		ref.Path = "/" + path
	}

	host := hostport
	ref.Port = defaultPort(ref.Scheme)
	if h, p, found := strings.Cut(hostport, ":"); found {
		host = h
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, &gorushi.Error{Op: op, Kind: gorushi.ErrMalformedURL, Message: "bad port: " + p, Inner: err}
		}
		ref.Port = n
	}

	normalized, err := idna.Lookup.ToASCII(host)
	if err != nil {
		// Not every host is a valid IDNA label (e.g. one containing
		// an underscore); fall back to the literal host rather than fail
		// the whole parse over a cosmetic normalization step.
		normalized = host
	}
	ref.Host = normalized

	return ref, nil
}

// String renders the canonical form used as the fetch response cache key:
// scheme, host, explicit port, and path.
func (u *UrlRef) String() string {
	var b strings.Builder
	switch u.Scheme {
	case SchemeData:
		b.WriteString("data:")
		b.WriteString(u.Content)
		return b.String()
	case SchemeFile:
		b.WriteString("file://")
		b.WriteString(u.Path)
		return b.String()
	case SchemeAbout:
		b.WriteString("about:")
		b.WriteString(u.Path)
		return b.String()
	}
	b.WriteString(string(u.Scheme))
	b.WriteString("://")
	b.WriteString(u.Host)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(u.Port))
	b.WriteString(u.Path)
	return b.String()
}

// ResolveRedirect resolves a Location header value against u, per the
// relative/absolute distinction HttpFetcher's redirect loop needs.
func ResolveRedirect(u *UrlRef, location string) (*UrlRef, error) {
	if strings.Contains(location, "://") || strings.HasPrefix(location, "data:") || strings.HasPrefix(location, "about:") {
		return Parse(location)
	}
	if !strings.HasPrefix(location, "/") {
		location = u.Path[:strings.LastIndex(u.Path, "/")+1] + location
	}
	next := *u
	next.Path = location
	return &next, nil
}
