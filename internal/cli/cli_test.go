package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leofalp/sdtt/core/report"
)

const socialPage = `<html><head>
<title>Hello</title>
<meta name="description" content="A post">
<meta property="og:title" content="Hello">
<meta property="og:type" content="article">
<meta property="og:image" content="https://example.com/cover.png">
<meta property="og:url" content="https://example.com/hello">
<meta name="twitter:card" content="summary">
<meta name="twitter:title" content="Hello">
</head></html>`

type result struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, args ...string) result {
	t.Helper()
	t.Setenv("SDTT_CONFIG", "")
	t.Setenv("NO_COLOR", "1")
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("1.2.3", &stdout, &stderr)
	code := run(context.Background(), cmd, args, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func writePage(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFile_Passed(t *testing.T) {
	res := execute(t, "--file", writePage(t, socialPage), "--presets", "SocialMedia")
	if res.code != ExitOK {
		t.Fatalf("Expected exit 0, got %d: %s%s", res.code, res.stdout, res.stderr)
	}
	for _, want := range []string{"PASS  og:Article", "PASS  twitter:Card", "Result: PASSED"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("Expected %q in output:\n%s", want, res.stdout)
		}
	}
}

func TestFile_PositionalPresetValue(t *testing.T) {
	res := execute(t, "-f", writePage(t, socialPage), "-p", "SocialMedia")
	if res.code != ExitOK {
		t.Fatalf("Expected exit 0, got %d: %s%s", res.code, res.stdout, res.stderr)
	}
}

func TestFile_Failed(t *testing.T) {
	res := execute(t, "-f", writePage(t, "<html><head><title>x</title></head></html>"), "--schemas=og:Basic")
	if res.code != ExitFailed {
		t.Fatalf("Expected exit 1, got %d", res.code)
	}
	if !strings.Contains(res.stdout, "FAIL  og:Basic") || !strings.Contains(res.stdout, "missing") {
		t.Errorf("Expected the full report on failure:\n%s", res.stdout)
	}
	if res.stderr != "" {
		t.Errorf("Expected no error line for a validation failure, got %q", res.stderr)
	}
}

func TestJSONOutput(t *testing.T) {
	res := execute(t, "-f", writePage(t, socialPage), "-p=Twitter", "--output", "json")
	if res.code != ExitOK {
		t.Fatalf("Expected exit 0, got %d: %s", res.code, res.stderr)
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(res.stdout), &rep); err != nil {
		t.Fatalf("Expected JSON report: %v\n%s", err, res.stdout)
	}
	if !rep.Passed || rep.Input.Kind != report.InputFile {
		t.Errorf("Unexpected report %+v", rep)
	}
}

func TestInvalidTokens(t *testing.T) {
	res := execute(t, "-f", writePage(t, socialPage), "-p=Nope,SocialMedia", "-s=jsonld:Bogus")
	if res.code != ExitFailed {
		t.Fatalf("Expected exit 1, got %d", res.code)
	}
	for _, want := range []string{`"Nope" is not a valid preset`, `"Bogus" is not a valid schema`} {
		if !strings.Contains(res.stderr, want) {
			t.Errorf("Expected %q in stderr:\n%s", want, res.stderr)
		}
	}
	if !strings.Contains(res.stdout, "SocialMedia") || !strings.Contains(res.stdout, "jsonld:Article") {
		t.Errorf("Expected the listing after the errors:\n%s", res.stdout)
	}
}

func TestUsageErrors(t *testing.T) {
	page := writePage(t, socialPage)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no input", []string{"-p=SocialMedia"}, "no input"},
		{"url and file", []string{"-u", "example.com", "-f", page, "-p=SocialMedia"}, "either --url or --file"},
		{"bad output", []string{"-f", page, "-p=SocialMedia", "-o", "xml"}, "unknown output format"},
		{"stray args", []string{"-f", page, "-p=SocialMedia", "extra"}, "unexpected arguments"},
		{"missing file", []string{"-f", filepath.Join(t.TempDir(), "nope.html"), "-p=SocialMedia"}, "nope.html"},
		{"no selection", []string{"-f", page}, "no presets or schemas"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, tt.args...)
			if res.code != ExitFailed {
				t.Errorf("Expected exit 1, got %d", res.code)
			}
			if !strings.Contains(res.stderr, tt.want) {
				t.Errorf("Expected %q in stderr, got %q", tt.want, res.stderr)
			}
		})
	}
}

func TestListing(t *testing.T) {
	res := execute(t, "--presets")
	if res.code != ExitOK {
		t.Fatalf("Expected exit 0, got %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "SocialMedia") || strings.Contains(res.stdout, "Required") {
		t.Errorf("Expected only the preset listing:\n%s", res.stdout)
	}

	res = execute(t, "--schemas", "-o", "json")
	var entries []map[string]any
	if err := json.Unmarshal([]byte(res.stdout), &entries); err != nil {
		t.Fatalf("Expected a JSON schema listing: %v", err)
	}
	if len(entries) == 0 {
		t.Error("Expected schema entries")
	}

	res = execute(t, "presets")
	if res.code != ExitOK || !strings.Contains(res.stdout, "Google") {
		t.Errorf("Expected the presets subcommand to list presets:\n%s", res.stdout)
	}
}

func TestBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bare" {
			_, _ = w.Write([]byte("<html><head><title>x</title></head></html>"))
			return
		}
		_, _ = w.Write([]byte(socialPage))
	}))
	defer srv.Close()

	res := execute(t, "-u", srv.URL+"/ok", "-u", srv.URL+"/bare", "-p=Twitter")
	if res.code != ExitFailed {
		t.Fatalf("Expected exit 1, got %d", res.code)
	}
	if !strings.Contains(res.stdout, "Runs: 1 passed, 1 failed, 0 errors") {
		t.Errorf("Expected the batch summary:\n%s", res.stdout)
	}
}

func TestConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "sdtt.yaml")
	content := `schemas:
  - format: meta
    name: Titled
    fields:
      - key: title
        required: true
`
	if err := os.WriteFile(cfg, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	res := execute(t, "--config", cfg, "-f", writePage(t, socialPage), "-s=meta:Titled")
	if res.code != ExitOK {
		t.Errorf("Expected exit 0, got %d: %s", res.code, res.stderr)
	}
}

func TestVersion(t *testing.T) {
	for _, flag := range []string{"--version", "-v"} {
		res := execute(t, flag)
		if res.code != ExitOK || !strings.Contains(res.stdout, "1.2.3") {
			t.Errorf("%s: expected version in %q (exit %d, stderr %q)", flag, res.stdout, res.code, res.stderr)
		}
	}
}

func TestVerboseShorthand(t *testing.T) {
	res := execute(t, "-f", writePage(t, socialPage), "-p=Twitter", "-V")
	if res.code != ExitOK {
		t.Fatalf("Expected exit 0, got %d: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, `"summary"`) {
		t.Errorf("Expected field values in verbose output:\n%s", res.stdout)
	}
}
