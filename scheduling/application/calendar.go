package application

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Droze-svj/click-platform-sub013/pkg/timeutils"
	"github.com/Droze-svj/click-platform-sub013/scheduling/domain"
	"github.com/emersion/go-ical"
	"github.com/sirupsen/logrus"
)

const (
	calendarProductID  = "-//Click Platform//Content Scheduler//EN"
	calendarFieldLimit = 200
	eventDuration      = time.Hour

	emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + calendarProductID + "\r\nEND:VCALENDAR\r\n"
)

// CalendarExporter renders scheduled posts as an iCalendar feed.
type CalendarExporter struct {
	posts   domain.IPostRepository
	content domain.IContentStore
	clock   timeutils.Clock
}

func NewCalendarExporter(posts domain.IPostRepository, content domain.IContentStore, clock timeutils.Clock) *CalendarExporter {
	if clock == nil {
		clock = timeutils.RealClock{}
	}
	return &CalendarExporter{posts: posts, content: content, clock: clock}
}

type ExportFilter struct {
	UserID   string
	Platform string
	From     time.Time
	To       time.Time
}

// Export encodes the user's scheduled and pending posts in range.
func (e *CalendarExporter) Export(ctx context.Context, f ExportFilter) ([]byte, error) {
	posts, err := e.posts.ListPosts(ctx, domain.PostFilter{
		UserID:   f.UserID,
		Platform: f.Platform,
		From:     f.From,
		To:       f.To,
		Statuses: domain.ConflictingStatuses,
	})
	if err != nil {
		return nil, err
	}
	return e.Encode(ctx, posts)
}

// Encode builds one VEVENT per post.
func (e *CalendarExporter) Encode(ctx context.Context, posts []domain.ScheduledPost) ([]byte, error) {
	if len(posts) == 0 {
		// The encoder rejects a calendar without components.
		return []byte(emptyCalendar), nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)

	stamp := e.clock.Now().UTC()
	titles := map[string]domain.Content{}
	for _, p := range posts {
		content, ok := titles[p.ContentID]
		if !ok && e.content != nil {
			c, err := e.content.GetContent(ctx, p.ContentID)
			switch {
			case err == nil:
				content = c
			case errors.Is(err, domain.ErrContentMissing):
				logrus.Debugf("[CALENDAR] Content %s missing for post %s", p.ContentID, p.ID)
			default:
				return nil, err
			}
			titles[p.ContentID] = content
		}

		summary := content.Title
		if summary == "" {
			summary = p.Text
		}
		if summary == "" {
			summary = "Scheduled " + p.Platform + " post"
		}

		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, p.ID+"@click-platform")
		event.Props.SetText(ical.PropSummary, truncateField(plainText(summary)))
		if desc := plainText(content.Description); desc != "" {
			event.Props.SetText(ical.PropDescription, truncateField(desc))
		}
		event.Props.SetText(ical.PropLocation, truncateField(p.Platform))
		event.Props.SetDateTime(ical.PropDateTimeStart, p.ScheduledAt.UTC())
		event.Props.SetDateTime(ical.PropDateTimeEnd, p.ScheduledAt.Add(eventDuration).UTC())
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncateField cuts to the field limit in runes. Escaping of ';', ',' and
// newlines happens in the encoder.
func truncateField(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= calendarFieldLimit {
		return s
	}
	return string(runes[:calendarFieldLimit])
}
