package api

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"elogy.dev/core/model"
	"elogy.dev/core/search"
)

// parseSearchFilter builds a search.Filter from the query parameters the
// search endpoint documents: title, content, authors, attachments as regex; repeated
// attribute=name:value and metadata=name:value; archived, ignore_children,
// followups, sort_by_timestamp, n, offset.
func parseSearchFilter(params url.Values, logbookID *int) (search.Filter, error) {
	q := params.Get
	f := search.Filter{LogbookID: logbookID, ChildLogbooks: logbookID != nil}

	if logbookID != nil && q("ignore_children") == "true" {
		f.ChildLogbooks = false
	}
	f.IncludeArchived = q("archived") == "true"
	f.Followups = q("followups") == "true"
	f.SortByTimestamp = q("sort_by_timestamp") == "true"

	var err error
	if f.TitleFilter, err = compileParam(q("title")); err != nil {
		return f, err
	}
	if f.ContentFilter, err = compileParam(q("content")); err != nil {
		return f, err
	}
	if f.AuthorFilter, err = compileParam(q("authors")); err != nil {
		return f, err
	}
	if f.AttachmentFilter, err = compileParam(q("attachments")); err != nil {
		return f, err
	}

	for _, raw := range params["attribute"] {
		f.AttributeFilter = append(f.AttributeFilter, splitNameValue(raw))
	}
	for _, raw := range params["metadata"] {
		f.MetadataFilter = append(f.MetadataFilter, splitNameValue(raw))
	}

	if n := q("n"); n != "" {
		v, err := strconv.Atoi(n)
		if err != nil {
			return f, model.NewValidationError("n", "must be an integer")
		}
		f.N = v
	}
	if offset := q("offset"); offset != "" {
		v, err := strconv.Atoi(offset)
		if err != nil {
			return f, model.NewValidationError("offset", "must be an integer")
		}
		f.Offset = v
	}
	if from := q("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return f, model.NewValidationError("from", "must be RFC3339")
		}
		f.FromTimestamp = &t
	}
	if until := q("until"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			return f, model.NewValidationError("until", "must be RFC3339")
		}
		f.UntilTimestamp = &t
	}

	return f, nil
}

func compileParam(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, model.NewValidationError("pattern", "invalid regular expression: "+err.Error())
	}
	return re, nil
}

func splitNameValue(raw string) search.NameValue {
	parts := strings.SplitN(raw, ":", 2)
	if len(parts) != 2 {
		return search.NameValue{Name: parts[0]}
	}
	return search.NameValue{Name: parts[0], Value: parts[1]}
}

// searchResultRow is the wire shape of one search.ThreadRow.
type searchResultRow struct {
	*model.Entry
	NFollowups      int            `json:"n_followups"`
	Timestamp       time.Time      `json:"timestamp"`
	FollowupAuthors []model.Author `json:"followup_authors,omitempty"`
}

func renderRows(rows []search.ThreadRow) []searchResultRow {
	out := make([]searchResultRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, searchResultRow{
			Entry:           r.Entry,
			NFollowups:      r.NFollowups,
			Timestamp:       r.Timestamp,
			FollowupAuthors: r.FollowupAuthors,
		})
	}
	return out
}
