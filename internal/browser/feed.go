package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jordan/outreach-agent/internal/types"
)

// Feed markup selectors, kept with the action selectors in spirit: one
// place to patch when the platform ships new markup.
const (
	selFeedPost       = `div.feed-shared-update-v2`
	selFeedPostAuthor = `span.update-components-actor__title`
	selFeedPostText   = `div.update-components-text`
	selFeedPostLink   = `a.app-aware-link`
)

// ExtractFeedPosts parses rendered feed HTML into posts, at most limit of
// them. Posts without any text content are dropped; there is nothing to
// engage with.
func ExtractFeedPosts(html string, limit int) ([]types.FeedPost, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing feed HTML: %w", err)
	}

	var posts []types.FeedPost
	doc.Find(selFeedPost).EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if limit > 0 && len(posts) >= limit {
			return false
		}
		text := normalizeSpace(sel.Find(selFeedPostText).First().Text())
		if text == "" {
			return true
		}
		post := types.FeedPost{
			Author: normalizeSpace(sel.Find(selFeedPostAuthor).First().Text()),
			Text:   text,
		}
		if href, ok := sel.Find(selFeedPostLink).First().Attr("href"); ok {
			post.URL = href
		}
		if id, ok := sel.Attr("data-urn"); ok {
			post.Selector = fmt.Sprintf(`%s[data-urn=%q]`, selFeedPost, id)
		}
		posts = append(posts, post)
		return true
	})
	return posts, nil
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
