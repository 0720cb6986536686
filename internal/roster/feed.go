package roster

import (
	"fmt"

	"github.com/gyeh/outreach/internal/model"
	"github.com/gyeh/outreach/internal/normalize"
)

const (
	keyPostDate = "postdate"
	keyFeedMail = "email"
)

func feedHeader(cell string) string {
	switch h := normalize.Header(cell); h {
	case keyPostDate:
		return keyPostDate
	case keyFeedMail, keyEmail:
		return keyFeedMail
	}
	return ""
}

// ReadFeed loads a no-review feed. The posting date is read from the first
// data row and applies to the whole file.
func ReadFeed(path string) (*model.NoReviewFeed, error) {
	table, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return ParseFeed(table)
}

// ParseFeed builds a feed from a grid whose header row has "Post Date" and
// "Email" columns.
func ParseFeed(table [][]string) (*model.NoReviewFeed, error) {
	start, pos, ok := findHeader(table, feedHeader, keyPostDate, keyFeedMail)
	if !ok {
		return nil, fmt.Errorf("%w: no-review feed needs Post Date and Email columns", model.ErrMalformedInput)
	}
	di, ei := pos[keyPostDate], pos[keyFeedMail]

	var body [][]string
	for _, row := range table[start+1:] {
		if cellAt(row, di, true) == "" && cellAt(row, ei, true) == "" {
			continue
		}
		body = append(body, row)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: no-review feed has no rows", model.ErrMalformedInput)
	}

	raw := cellAt(body[0], di, true)
	d := normalize.ParseDate(raw)
	if d == nil {
		return nil, fmt.Errorf("%w: invalid post date %q", model.ErrMalformedInput, raw)
	}

	feed := &model.NoReviewFeed{
		PostDate: model.Day(*d),
		Emails:   make(map[string]struct{}, len(body)),
	}
	for _, row := range body {
		if e := normalize.Email(cellAt(row, ei, true)); e != "" {
			feed.Emails[e] = struct{}{}
		}
	}
	return feed, nil
}
