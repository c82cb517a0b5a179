package session

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/clawback/internal/llm"
)

// LineSource writes one chat line, returning fallback when it cannot.
// provider.Gateway implements it.
type LineSource interface {
	Line(ctx context.Context, brief llm.LineBrief, fallback string) string
}

// delivery is a chat line ready to be posted on the next tick.
type delivery struct {
	npcID string
	kind  llm.LineKind
	text  string
}

// narrator delivers NPC chat lines off the tick path. Each line races the
// provider against a simulated typing delay and is delivered once both are
// done, so a fast provider still looks like typing.
type narrator struct {
	source   LineSource
	minDelay time.Duration
	maxDelay time.Duration

	mu      sync.Mutex
	token   uint64
	ready   []delivery
	pending int
	rng     *rand.Rand
	wg      sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc
}

func newNarrator(source LineSource, minDelay, maxDelay time.Duration, seed uint64) *narrator {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	n := &narrator{
		source:   source,
		minDelay: minDelay,
		maxDelay: maxDelay,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	n.ctx, n.cancel = context.WithCancel(context.Background())
	return n
}

func (n *narrator) typingDelay() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	span := n.maxDelay - n.minDelay
	if span <= 0 {
		return n.minDelay
	}
	return n.minDelay + time.Duration(n.rng.Int64N(int64(span)+1))
}

// say schedules a line. An empty result is dropped.
func (n *narrator) say(brief llm.LineBrief, fallback string) {
	n.mu.Lock()
	token := n.token
	ctx := n.ctx
	n.pending++
	n.mu.Unlock()
	delay := n.typingDelay()

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		text := fallback
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if delay <= 0 {
				return nil
			}
			t := time.NewTimer(delay)
			defer t.Stop()
			select {
			case <-t.C:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
		if n.source != nil {
			g.Go(func() error {
				text = n.source.Line(gctx, brief, fallback)
				return nil
			})
		}
		err := g.Wait()

		n.mu.Lock()
		defer n.mu.Unlock()
		if token != n.token {
			return
		}
		n.pending--
		if err != nil || text == "" {
			return
		}
		n.ready = append(n.ready, delivery{npcID: brief.NPC.ID, kind: brief.Kind, text: text})
	}()
}

// drain returns the lines delivered since the last drain.
func (n *narrator) drain() []delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.ready
	n.ready = nil
	return out
}

// typing reports whether any line is still being written.
func (n *narrator) typing() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pending > 0
}

// reset discards pending and undelivered lines.
func (n *narrator) reset() {
	n.mu.Lock()
	n.cancel()
	n.token++
	n.ready = nil
	n.pending = 0
	n.ctx, n.cancel = context.WithCancel(context.Background())
	n.mu.Unlock()
}

func (n *narrator) wait() {
	n.wg.Wait()
}

func (n *narrator) close() {
	n.mu.Lock()
	n.cancel()
	n.mu.Unlock()
	n.wg.Wait()
}
