package orchestrator

import "strings"

type URLKind int

const (
	KindWeb URLKind = iota
	KindYouTube
	KindNews
	KindReddit
)

func (k URLKind) String() string {
	switch k {
	case KindYouTube:
		return "youtube"
	case KindNews:
		return "news"
	case KindReddit:
		return "reddit"
	default:
		return "web"
	}
}

// NewsDomains are matched as substrings of the URL.
var NewsDomains = []string{
	"cnn.com", "bbc.com", "reuters.com", "nytimes.com",
	"washingtonpost.com", "guardian.com", "apnews.com",
}

// DetectURL classifies a URL by substring, in priority order YouTube, news,
// Reddit, then generic web.
func DetectURL(u string) URLKind {
	if strings.Contains(u, "youtube.com") || strings.Contains(u, "youtu.be") {
		return KindYouTube
	}
	for _, d := range NewsDomains {
		if strings.Contains(u, d) {
			return KindNews
		}
	}
	if strings.Contains(u, "reddit.com") {
		return KindReddit
	}
	return KindWeb
}
