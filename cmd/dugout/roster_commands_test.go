package main

import (
	"testing"
)

func TestRosterAddListRename(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"roster", "add", "Jordan Alvarez", "--bats", "left"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("roster add: %v", err)
	}
	requireContains(t, out, "Added athlete #1 (Jordan Alvarez)")

	out, _, err = runCLI(t, []string{"roster", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("roster list: %v", err)
	}
	requireContains(t, out, "Jordan Alvarez")
	requireContains(t, out, "left")

	out, _, err = runCLI(t, []string{"roster", "rename", "1", "J. Alvarez"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("roster rename: %v", err)
	}
	requireContains(t, out, "renamed to J. Alvarez")
}

func TestRosterListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"roster", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("roster list: %v", err)
	}
	requireContains(t, out, "Roster is empty")
}
