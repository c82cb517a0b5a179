package llm

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalConfig_FilesPresent(t *testing.T) {
	t.Setenv("YZMA_LIB", "")
	dir := t.TempDir()
	model := filepath.Join(dir, "model.gguf")
	if err := os.WriteFile(model, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	notDir := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(notDir, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		cfg  LocalConfig
		want bool
	}{
		{"empty", LocalConfig{}, false},
		{"missing lib", LocalConfig{ModelPath: model}, false},
		{"missing model", LocalConfig{LibPath: dir}, false},
		{"lib is a file", LocalConfig{LibPath: notDir, ModelPath: model}, false},
		{"model is a dir", LocalConfig{LibPath: dir, ModelPath: dir}, false},
		{"model absent", LocalConfig{LibPath: dir, ModelPath: filepath.Join(dir, "nope.gguf")}, false},
		{"present", LocalConfig{LibPath: dir, ModelPath: model}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.filesPresent(); got != tt.want {
				t.Errorf("filesPresent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLocalConfig_LibPathFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("YZMA_LIB", dir)
	if got := (LocalConfig{}).resolveLibPath(); got != dir {
		t.Errorf("resolveLibPath() = %q, want %q", got, dir)
	}
	if got := (LocalConfig{LibPath: "/explicit"}).resolveLibPath(); got != "/explicit" {
		t.Errorf("resolveLibPath() = %q, want the configured path", got)
	}
}

func TestLocalConfig_ContextSize(t *testing.T) {
	if got := (LocalConfig{}).contextSize(); got != defaultLocalContextSize {
		t.Errorf("contextSize() = %d, want %d", got, defaultLocalContextSize)
	}
	if got := (LocalConfig{ContextSize: 4096}).contextSize(); got != 4096 {
		t.Errorf("contextSize() = %d, want 4096", got)
	}
}

func TestRenderPrompt(t *testing.T) {
	req := CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You write office tasks."},
			{Role: RoleUser, Content: "  Generate one.  "},
		},
	}
	got := renderPrompt(req)
	want := "<|system|>\nYou write office tasks.\n<|user|>\nGenerate one.\n<|assistant|>\n"
	if got != want {
		t.Errorf("renderPrompt() = %q, want %q", got, want)
	}

	req.JSONMode = true
	got = renderPrompt(req)
	if !strings.Contains(got, "single JSON object") {
		t.Errorf("JSON mode prompt lacks the JSON instruction: %q", got)
	}
	if !strings.HasSuffix(got, "<|assistant|>\n") {
		t.Errorf("prompt must end with an open assistant turn: %q", got)
	}
}

func TestMaxTokens(t *testing.T) {
	if got := maxTokens(CompletionRequest{}); got != defaultLocalMaxTokens {
		t.Errorf("maxTokens() = %d, want %d", got, defaultLocalMaxTokens)
	}
	if got := maxTokens(CompletionRequest{MaxTokens: 64}); got != 64 {
		t.Errorf("maxTokens() = %d, want 64", got)
	}
}
