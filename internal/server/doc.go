// Package server exposes the movie service over a JSON HTTP API with a
// uniform response envelope and request logging.
package server
