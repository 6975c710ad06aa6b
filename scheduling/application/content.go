package application

import (
	"regexp"
	"strings"
	"time"

	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

var hashtagPattern = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// plainText drops markup from a content body.
func plainText(body string) string {
	if !strings.ContainsAny(body, "<>") {
		return strings.TrimSpace(body)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return strings.TrimSpace(body)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// normalizeHashtags prefixes '#', drops blanks and duplicates and keeps at
// most limit tags. A limit of zero keeps all of them.
func normalizeHashtags(tags []string, limit int) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(tag), "#"))
		if tag == "" {
			continue
		}
		tag = "#" + strings.ReplaceAll(tag, " ", "")
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// refreshHashtags rebuilds the tag list from the current content: explicit
// tags first, then hashtags found in the body.
func refreshHashtags(tags []string, body string, limit int) []string {
	merged := append([]string{}, tags...)
	merged = append(merged, hashtagPattern.FindAllString(plainText(body), -1)...)
	return normalizeHashtags(merged, limit)
}

// NewPost builds a scheduled post for content at the given instant. The
// caller fills in rule or template references.
func NewPost(content domain.Content, userID, platform string, at time.Time, timezone string, now time.Time) domain.ScheduledPost {
	return domain.ScheduledPost{
		ID:          uuid.NewString(),
		UserID:      userID,
		ContentID:   content.ID,
		Platform:    platform,
		Text:        plainText(content.Text()),
		MediaRefs:   content.MediaRefs,
		Hashtags:    normalizeHashtags(content.Tags, 0),
		ScheduledAt: at,
		Timezone:    timezone,
		Status:      domain.PostStatusScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
