package app

import (
	"net/url"
	"path/filepath"
	"strings"
)

// normalizeDBURL switches lib/pq to single round trip parameter binding,
// which keeps it off named prepared statements behind transaction poolers.
func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.Scheme == "" {
		return raw
	}

	query := parsed.Query()
	if query.Get("binary_parameters") == "" {
		query.Set("binary_parameters", "yes")
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

var sqlitePragmas = []string{"foreign_keys(1)", "busy_timeout(5000)"}

// sqliteDSN enables foreign keys and a busy timeout unless the DSN already
// sets those pragmas.
func sqliteDSN(raw string) string {
	dsn := strings.TrimSpace(raw)
	base, rawQuery, _ := strings.Cut(dsn, "?")

	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return dsn
	}
	existing := strings.Join(query["_pragma"], ",")
	for _, pragma := range sqlitePragmas {
		name, _, _ := strings.Cut(pragma, "(")
		if strings.Contains(existing, name) {
			continue
		}
		query.Add("_pragma", pragma)
	}

	return base + "?" + query.Encode()
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}

func sqliteNameFromDSN(raw string) string {
	path, _, _ := strings.Cut(strings.TrimSpace(raw), "?")
	path = strings.TrimPrefix(path, "file:")
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
