package media

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"
)

// Provider is one supported media source: a fixed set of lowercase hosts
// followed by any non-empty path.
type Provider struct {
	Name  string
	Hosts []string

	// accepts is an additional provider-specific check on the parsed link.
	accepts func(u *url.URL, host string) bool
}

var (
	Reddit  = Provider{Name: "reddit", Hosts: []string{"reddit.com", "www.reddit.com"}}
	TikTok  = Provider{Name: "tiktok", Hosts: []string{"tiktok.com", "www.tiktok.com", "vm.tiktok.com"}}
	YouTube = Provider{
		Name:    "youtube",
		Hosts:   []string{"youtube.com", "www.youtube.com", "youtu.be"},
		accepts: isYouTubeVideo,
	}
)

var youtubeVideoID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// isYouTubeVideo accepts only links to a single video: youtu.be/<id>,
// /watch?v=<id> and /shorts/<id>. Playlists and channel pages are rejected.
func isYouTubeVideo(u *url.URL, host string) bool {
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	var id string
	switch {
	case host == "youtu.be":
		if len(segs) != 1 {
			return false
		}
		id = segs[0]
	case len(segs) == 1 && segs[0] == "watch":
		id = u.Query().Get("v")
	case len(segs) == 2 && segs[0] == "shorts":
		id = segs[1]
	default:
		return false
	}
	if !youtubeVideoID.MatchString(id) {
		return false
	}
	extracted, err := youtube.ExtractVideoID(u.String())
	return err == nil && extracted == id
}

// Providers is the closed allow-list. Adding a source means adding an entry here.
var Providers = []Provider{Reddit, TikTok, YouTube}

var allowedSchemes = map[string]struct{}{
	"https": {},
	"http":  {},
}

// Validate reports whether rawURL is a well-formed absolute URL of a supported provider.
func Validate(rawURL string) bool {
	_, ok := Match(rawURL)
	return ok
}

// Match returns the provider rawURL belongs to. It does no I/O.
func Match(rawURL string) (Provider, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Provider{}, false
	}
	if !u.IsAbs() || u.Host == "" || u.Opaque != "" || u.User != nil || u.Port() != "" {
		return Provider{}, false
	}
	if _, ok := allowedSchemes[u.Scheme]; !ok {
		return Provider{}, false
	}
	if strings.Trim(u.Path, "/") == "" {
		return Provider{}, false
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range Providers {
		if !p.hasHost(host) {
			continue
		}
		if p.accepts != nil && !p.accepts(u, host) {
			return Provider{}, false
		}
		return p, true
	}
	return Provider{}, false
}

func (p Provider) hasHost(host string) bool {
	for _, h := range p.Hosts {
		if h == host {
			return true
		}
	}
	return false
}

// SupportedNames lists provider names for user-facing messages.
func SupportedNames() []string {
	names := make([]string, 0, len(Providers))
	for _, p := range Providers {
		names = append(names, p.Name)
	}
	return names
}
