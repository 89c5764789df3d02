package database

import (
	"net/url"
	"strings"
)

// ConstructDatabaseURL points baseURL at databaseName and defaults sslmode to
// disable. An empty name, or a URL that does not parse, is returned unchanged.
func ConstructDatabaseURL(baseURL, databaseName string) string {
	if databaseName == "" {
		return baseURL
	}

	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return baseURL
	}
	u.Path = "/" + databaseName

	query := u.Query()
	if !query.Has("sslmode") {
		query.Set("sslmode", "disable")
	}
	u.RawQuery = query.Encode()
	return u.String()
}
