// Package catalog persists movie records in SQLite and serves the local
// tier of the lookup chain: category listings, search, genre browsing,
// filtering, and aggregate statistics.
package catalog
