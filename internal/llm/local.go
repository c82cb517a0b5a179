//go:build llamacpp

package llm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/hybridgroup/yzma/pkg/llama"
)

// llama.Load and llama.Init are process-global and must only happen once.
var (
	libOnce    sync.Once
	libLoadErr error
)

func loadLib(libPath string) error {
	libOnce.Do(func() {
		if err := llama.Load(libPath); err != nil {
			libLoadErr = fmt.Errorf("loading yzma shared library from %q: %w", libPath, err)
			return
		}
		llama.LogSet(llama.LogSilent())
		llama.Init()
	})
	return libLoadErr
}

// LocalClient implements Client with a GGUF model run in-process through
// hybridgroup/yzma (purego). Model access is serialized; a llama context is
// created per Complete call and freed when it returns.
type LocalClient struct {
	cfg LocalConfig

	mu      sync.Mutex
	model   llama.Model
	vocab   llama.Vocab
	loaded  bool
	loadErr error
	once    sync.Once
}

// NewLocalClient creates a LocalClient. The model is not loaded until the
// first Complete.
func NewLocalClient(cfg LocalConfig) *LocalClient {
	return &LocalClient{cfg: cfg}
}

func (c *LocalClient) loadModel() error {
	c.once.Do(func() {
		if c.cfg.ModelPath == "" {
			c.loadErr = fmt.Errorf("no model path configured")
			return
		}
		libPath := c.cfg.resolveLibPath()
		if libPath == "" {
			c.loadErr = fmt.Errorf("no library path configured (set local_lib_path or YZMA_LIB)")
			return
		}
		if err := loadLib(libPath); err != nil {
			c.loadErr = err
			return
		}

		params := llama.ModelDefaultParams()
		params.NGpuLayers = int32(min(c.cfg.GPULayers, math.MaxInt32))

		model, err := llama.ModelLoadFromFile(c.cfg.ModelPath, params)
		if err != nil {
			c.loadErr = fmt.Errorf("loading model %s: %w", c.cfg.ModelPath, err)
			return
		}
		if model == 0 {
			c.loadErr = fmt.Errorf("loading model %s: returned null handle", c.cfg.ModelPath)
			return
		}
		c.model = model
		c.vocab = llama.ModelGetVocab(model)
		c.loaded = true
	})
	return c.loadErr
}

// Available returns true if both the library directory and model file exist
// on disk. It does not load either.
func (c *LocalClient) Available() bool {
	return c.cfg.filesPresent()
}

// Complete renders the messages into a prompt and samples greedily until an
// end-of-generation token, the token budget or ctx ends it.
func (c *LocalClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := c.loadModel(); err != nil {
		return "", fmt.Errorf("local complete: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tokens := llama.Tokenize(c.vocab, renderPrompt(req), true, true)
	budget := maxTokens(req)

	ctxParams := llama.ContextDefaultParams()
	ctxParams.NCtx = uint32(min(max(c.cfg.contextSize(), len(tokens)+budget), math.MaxUint32))
	ctxParams.NBatch = uint32(min(max(len(tokens), 512), math.MaxUint32))

	lctx, err := llama.InitFromModel(c.model, ctxParams)
	if err != nil {
		return "", fmt.Errorf("creating generation context: %w", err)
	}
	defer func() { _ = llama.Free(lctx) }()

	sampler := llama.SamplerChainInit(llama.SamplerChainDefaultParams())
	defer llama.SamplerFree(sampler)
	llama.SamplerChainAdd(sampler, llama.SamplerInitGreedy())

	var out strings.Builder
	piece := make([]byte, 256)
	batch := llama.BatchGetOne(tokens)
	for i := 0; i < budget; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if _, err := llama.Decode(lctx, batch); err != nil {
			return "", fmt.Errorf("decoding tokens: %w", err)
		}
		token := llama.SamplerSample(sampler, lctx, -1)
		if llama.VocabIsEOG(c.vocab, token) {
			break
		}
		n := llama.TokenToPiece(c.vocab, token, piece, 0, false)
		if n > 0 {
			out.Write(piece[:n])
		}
		batch = llama.BatchGetOne([]llama.Token{token})
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Close releases the model. Safe to call more than once. It does not unload
// the shared library, which is process-global.
func (c *LocalClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		_ = llama.ModelFree(c.model)
		c.model = 0
		c.vocab = 0
		c.loaded = false
		c.once = sync.Once{}
	}
	return nil
}
