package main

import (
	"testing"
)

func TestStatsCommandRendersTables(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "== Catalog ==")
	requireContains(t, out, "Movies")
	requireContains(t, out, "== Cache ==")
	requireContains(t, out, "Hit rate")
}
