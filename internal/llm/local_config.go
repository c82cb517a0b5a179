package llm

import (
	"fmt"
	"os"
	"strings"
)

const (
	defaultLocalContextSize = 2048
	defaultLocalMaxTokens   = 512
)

// LocalConfig configures the local model client.
type LocalConfig struct {
	// LibPath is the directory containing the llama.cpp shared libraries
	// (.so/.dylib). Falls back to the YZMA_LIB env var at runtime.
	LibPath string `json:"lib_path,omitempty" yaml:"lib_path,omitempty"`

	// ModelPath is the path to the GGUF model file for text generation.
	ModelPath string `json:"model_path,omitempty" yaml:"model_path,omitempty"`

	// GPULayers is the number of layers to offload to GPU (0 = CPU only).
	GPULayers int `json:"gpu_layers,omitempty" yaml:"gpu_layers,omitempty"`

	// ContextSize is the context window size in tokens.
	ContextSize int `json:"context_size,omitempty" yaml:"context_size,omitempty"`
}

func (c LocalConfig) resolveLibPath() string {
	if c.LibPath != "" {
		return c.LibPath
	}
	return os.Getenv("YZMA_LIB")
}

func (c LocalConfig) contextSize() int {
	if c.ContextSize <= 0 {
		return defaultLocalContextSize
	}
	return c.ContextSize
}

// filesPresent reports whether the library directory and the model file
// exist on disk. It does not load either.
func (c LocalConfig) filesPresent() bool {
	libPath := c.resolveLibPath()
	if libPath == "" || c.ModelPath == "" {
		return false
	}
	if info, err := os.Stat(libPath); err != nil || !info.IsDir() {
		return false
	}
	info, err := os.Stat(c.ModelPath)
	return err == nil && !info.IsDir()
}

// renderPrompt flattens chat messages into a plain completion prompt that
// ends with an open assistant turn. JSON mode adds an instruction, since a
// local model has no response_format switch.
func renderPrompt(req CompletionRequest) string {
	var b strings.Builder
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "<|%s|>\n%s\n", m.Role, strings.TrimSpace(m.Content))
	}
	if req.JSONMode {
		fmt.Fprintf(&b, "<|%s|>\nRespond with a single JSON object and nothing else.\n", RoleSystem)
	}
	fmt.Fprintf(&b, "<|%s|>\n", RoleAssistant)
	return b.String()
}

// maxTokens bounds generation for one request.
func maxTokens(req CompletionRequest) int {
	if req.MaxTokens <= 0 {
		return defaultLocalMaxTokens
	}
	return req.MaxTokens
}
