package media

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
)

type Provider string

const (
	YouTube Provider = "youtube"
	Vimeo   Provider = "vimeo"
)

// Video is a recognised video page.
type Video struct {
	Provider Provider
	ID       string
}

// EmbedURL is the player address for v.
func (v Video) EmbedURL() string {
	switch v.Provider {
	case YouTube:
		return "https://www.youtube.com/embed/" + v.ID
	case Vimeo:
		return "https://player.vimeo.com/video/" + v.ID
	}
	return ""
}

var (
	youtubeIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	vimeoIDRe   = regexp.MustCompile(`^[0-9]+$`)
)

func hostIs(host, domain string) bool {
	host = strings.ToLower(host)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ParseVideoURL recognises YouTube watch pages and short links, and Vimeo video pages.
func ParseVideoURL(raw string) (Video, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Video{}, ErrEmptyURL
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return Video{}, fmt.Errorf("%w: %v", ErrUnsupportedVideo, err)
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var v Video
	switch {
	case hostIs(u.Hostname(), "youtube.com") && segments[0] == "watch":
		v = Video{Provider: YouTube, ID: u.Query().Get("v")}
	case hostIs(u.Hostname(), "youtu.be"):
		v = Video{Provider: YouTube, ID: segments[0]}
	case hostIs(u.Hostname(), "vimeo.com"):
		v = Video{Provider: Vimeo, ID: segments[0]}
	default:
		return Video{}, fmt.Errorf("%w: %s", ErrUnsupportedVideo, raw)
	}

	valid := youtubeIDRe
	if v.Provider == Vimeo {
		valid = vimeoIDRe
	}
	if !valid.MatchString(v.ID) {
		return Video{}, fmt.Errorf("%w: %s", ErrUnsupportedVideo, raw)
	}
	return v, nil
}

// InsertVideoFromURL embeds the player for a recognised video page. Unrecognised URLs leave the
// body untouched.
func (i *Inserter) InsertVideoFromURL(raw string) (string, error) {
	v, err := ParseVideoURL(raw)
	if err != nil {
		return "", err
	}
	container := dom.Element("div", "class", "video-container")
	id := dom.SetMediaID(container)
	container.AppendChild(dom.Element("iframe",
		"src", v.EmbedURL(),
		"frameborder", "0",
		"allowfullscreen", "",
		"sandbox", "allow-scripts allow-same-origin allow-presentation",
	))
	container.AppendChild(caption(captionPlaceholder))
	i.insert(container)
	mediaLogger.Debug().Str("provider", string(v.Provider)).Str("video", v.ID).Msg("Video embedded")
	return id, nil
}
