package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestQueueAddAndList(t *testing.T) {
	configPath := writeTestConfig(t)

	bodyPath := filepath.Join(t.TempDir(), "body.txt")
	if err := os.WriteFile(bodyPath, []byte("비트코인이 사상 최고가를 경신했다."), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCommand(t,
		"--config", configPath,
		"queue", "add",
		"--title", "BTC 신고가",
		"--category", "crypto",
		"--body-file", bodyPath,
	)
	if err != nil {
		t.Fatalf("queue add: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Queued article") || !strings.Contains(out, "reviewed") {
		t.Fatalf("unexpected add output: %s", out)
	}

	out, err = runCommand(t, "--config", configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v\n%s", err, out)
	}
	if !strings.Contains(out, "BTC 신고가") || !strings.Contains(out, "reviewed") {
		t.Fatalf("unexpected list output: %s", out)
	}
}

func TestQueueAddRequiresTitleAndBody(t *testing.T) {
	configPath := writeTestConfig(t)

	if _, err := runCommand(t, "--config", configPath, "queue", "add", "--body-file", "x"); err == nil {
		t.Fatal("expected error for missing title")
	}
	if _, err := runCommand(t, "--config", configPath, "queue", "add", "--title", "t"); err == nil {
		t.Fatal("expected error for missing body file")
	}
}

func TestQueueListEmpty(t *testing.T) {
	configPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue is empty.") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestQueueStatusUnknownArticle(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCommand(t, "--config", configPath, "queue", "status", "missing"); err == nil {
		t.Fatal("expected error for unknown article")
	}
}

func TestQueueListRejectsUnknownStage(t *testing.T) {
	configPath := writeTestConfig(t)
	if _, err := runCommand(t, "--config", configPath, "queue", "list", "--stage", "ripping"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}
