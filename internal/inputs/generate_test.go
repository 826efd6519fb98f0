package inputs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

const sampleLog = `some preamble
show running-config
hostname lab-switch
interface vlan 1
end
show vrrp stats all
vrrp became master 2 times
show ap active
ap-name ap315 up
show ap database
ap-name ap315 flags
`

func TestGenerateCCR(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bundle", TechSupportLog), sampleLog)

	got, err := GenerateCCR(dir)
	if err != nil {
		t.Fatalf("GenerateCCR: %v", err)
	}
	for _, want := range []string{
		"show running-config\nhostname lab-switch\ninterface vlan 1\nend\n",
		"show vrrp stats all\nvrrp became master 2 times\n",
		"show ap active\nap-name ap315 up\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("CCR output missing block %q in %q", want, got)
		}
	}
	if strings.Contains(got, "ap database") {
		t.Errorf("CCR output captured past the next show command: %q", got)
	}
}

func TestGenerateCHR(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, TechSupportLog), sampleLog)

	got, err := GenerateCHR(dir)
	if err != nil {
		t.Fatalf("GenerateCHR: %v", err)
	}
	want := "show running-config\nhostname lab-switch\ninterface vlan 1\nend\n"
	if got != want {
		t.Errorf("GenerateCHR = %q, want %q", got, want)
	}
}

func TestGenerateBucketReturnsWholeLog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nested", "deeper", TechSupportLog), sampleLog)

	got, err := GenerateBucket(dir)
	if err != nil {
		t.Fatalf("GenerateBucket: %v", err)
	}
	if got != sampleLog {
		t.Errorf("GenerateBucket did not return the log verbatim")
	}
}

func TestGenerateMissingLogYieldsEmptyNotError(t *testing.T) {
	dir := t.TempDir()

	for name, gen := range map[string]func(string) (string, error){
		"ccr":    GenerateCCR,
		"chr":    GenerateCHR,
		"bucket": GenerateBucket,
	} {
		got, err := gen(dir)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", name, err)
		}
		if got != "" {
			t.Errorf("%s: expected empty output, got %q", name, got)
		}
	}
}

func TestGenerateKeyword(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "flash", "config.cfg"), "vlan 10")
	writeFile(t, filepath.Join(dir, "mswitch", "license.db"), "key=abc")
	writeFile(t, filepath.Join(dir, "var", "log", "boot.log"), "booted ok")
	writeFile(t, filepath.Join(dir, "other", "skipped.txt"), "not indexed")

	var b strings.Builder
	n, err := GenerateKeyword(dir, &b)
	if err != nil {
		t.Fatalf("GenerateKeyword: %v", err)
	}
	if n != 3 {
		t.Fatalf("GenerateKeyword count = %d, want 3", n)
	}

	var entries map[string]string
	if err := json.Unmarshal([]byte(b.String()), &entries); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, b.String())
	}
	if entries["flash/config.cfg"] != "vlan 10" {
		t.Errorf("flash entry = %q", entries["flash/config.cfg"])
	}
	if entries["var/log/boot.log"] != "booted ok" {
		t.Errorf("var entry = %q", entries["var/log/boot.log"])
	}
	if _, ok := entries["other/skipped.txt"]; ok {
		t.Errorf("file outside indexed subtrees was included")
	}
}

func TestGenerateKeywordIncludesConfigDirWhenPresent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config", "default.cfg"), "controller-ip vlan 1")

	var b strings.Builder
	n, err := GenerateKeyword(dir, &b)
	if err != nil {
		t.Fatalf("GenerateKeyword: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
	var entries map[string]string
	if err := json.Unmarshal([]byte(b.String()), &entries); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entries["config/default.cfg"] != "controller-ip vlan 1" {
		t.Errorf("config entry = %q", entries["config/default.cfg"])
	}
}

func TestGenerateKeywordEmptyTree(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	n, err := GenerateKeyword(dir, &b)
	if err != nil {
		t.Fatalf("GenerateKeyword: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}
	var entries map[string]string
	if err := json.Unmarshal([]byte(b.String()), &entries); err != nil {
		t.Fatalf("empty document is not valid JSON: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %v", entries)
	}
}

func TestFindTechSupportLogFirstMatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a", TechSupportLog), "first")
	writeFile(t, filepath.Join(dir, "z", TechSupportLog), "second")

	found := FindTechSupportLog(dir)
	if found == "" {
		t.Fatal("log not found")
	}
	data, _ := os.ReadFile(found)
	if string(data) != "first" {
		t.Errorf("expected the first match in walk order, got %q", data)
	}
}
