package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/shoplane/shoplane/internal/db"
)

// SearchText runs a boosted multi-field text search via FT.SEARCH WITHSCORES.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Terms) == 0 {
		return nil, fmt.Errorf("terms are required")
	}
	if q.Limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	queryStr := buildTextQuery(q)

	args := []string{q.Index, queryStr,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.Limit),
		"DIALECT", "2",
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseScoredResult(raw)
}

// SearchList performs a filter-only listing via FT.SEARCH, optionally sorted.
func (s *Store) SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}

	queryStr := buildFilter(&q.Filter)
	if queryStr == "" {
		queryStr = "*"
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 10
	}
	args := []string{q.Index, queryStr}
	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}
	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(limit), "DIALECT", "2")

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseListResult(raw)
}

// SearchCount returns document count via FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &db.Error{Op: db.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// --- Query building ---

// buildTextQuery renders the boosted multi-field query: the same term group
// against each weighted field, OR-ed together, with any pre-filters AND-ed
// in front.
func buildTextQuery(q *db.TextQuery) string {
	escaped := make([]string, 0, len(q.Terms))
	for _, t := range q.Terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		escaped = append(escaped, escapeQuery(t))
	}
	group := "(" + strings.Join(escaped, "|") + ")"

	fieldParts := make([]string, 0, len(q.FieldBoosts))
	for _, field := range sortedBoostFields(q.FieldBoosts) {
		weight := q.FieldBoosts[field]
		part := fmt.Sprintf("(@%s:%s)", field, group)
		if weight > 0 && weight != 1 {
			part = fmt.Sprintf("%s => { $weight: %g; }", part, weight)
		}
		fieldParts = append(fieldParts, part)
	}

	textPart := group
	if len(fieldParts) > 0 {
		textPart = "(" + strings.Join(fieldParts, " | ") + ")"
	}

	if filterStr := buildFilter(&q.Filter); filterStr != "" {
		return filterStr + " " + textPart
	}
	return textPart
}

// sortedBoostFields orders fields by descending weight, then name, so the
// generated command is stable.
func sortedBoostFields(boosts map[string]float64) []string {
	fields := make([]string, 0, len(boosts))
	for f := range boosts {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		if boosts[fields[i]] != boosts[fields[j]] {
			return boosts[fields[i]] > boosts[fields[j]]
		}
		return fields[i] < fields[j]
	})
	return fields
}

// buildFilter translates a db.Filter into an FT.SEARCH pre-filter string.
func buildFilter(f *db.Filter) string {
	if f == nil || f.IsEmpty() {
		return ""
	}

	var parts []string
	for _, tag := range f.Tags {
		if len(tag.Values) == 0 {
			continue
		}
		values := make([]string, 0, len(tag.Values))
		for _, v := range tag.Values {
			values = append(values, escapeTagValue(v))
		}
		parts = append(parts, fmt.Sprintf("@%s:{%s}", tag.Field, strings.Join(values, "|")))
	}
	for _, num := range f.Numerics {
		minBound := "-inf"
		maxBound := "+inf"
		if num.Min != nil {
			minBound = fmt.Sprintf("%g", *num.Min)
		}
		if num.Max != nil {
			maxBound = fmt.Sprintf("%g", *num.Max)
		}
		parts = append(parts, fmt.Sprintf("@%s:[%s %s]", num.Field, minBound, maxBound))
	}
	return strings.Join(parts, " ")
}

// escapeTagValue escapes TAG metacharacters but leaves '*' alone so bucketed
// values can use prefix/suffix wildcards.
func escapeTagValue(v string) string {
	if strings.Contains(v, "*") {
		return v
	}
	return tagEscaper.Replace(v)
}

// --- Result parsing ---

// parseScoredResult parses a WITHSCORES reply.
// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
func parseScoredResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

// parseListResult parses an unscored reply.
// 2-stride: [total, key1, fields1, key2, fields2, ...]
func parseListResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Escaping ---

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
