// Package movies implements the catalog service: every lookup walks the
// chain of in-process cache, local catalog, upstream API, and static
// fallbacks, tagging results with the tier that answered. A background
// worker refills catalog gaps without blocking requests.
package movies
