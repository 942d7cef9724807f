// Package cache implements the in-process response cache that fronts the
// catalog and the upstream API, with per-key TTLs and activity counters.
package cache
