package main

import (
	"strings"
	"testing"
)

func TestRunRequiresDatabaseURL(t *testing.T) {
	err := run("", nil)
	if err == nil {
		t.Fatal("expected an error without a database URL")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Fatalf("error should name the env var, got %q", err)
	}
}
