// Package tmdb implements a rate-limited client for The Movie Database API
// covering list, search, discover, trending, genre, and detail endpoints.
package tmdb
