// Package scheduler paces request arrival. Each tick it decides whether a new
// request should spawn, rolls its tier and trap flag, and either starts
// asynchronous generation through the provider or draws a scenario from the
// fallback pool.
package scheduler

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/clawback/internal/constants"
	"github.com/nvandessel/clawback/internal/content"
	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/logging"
	"github.com/nvandessel/clawback/internal/models"
)

// Generator produces request content. provider.Gateway implements it.
type Generator interface {
	GenerateRequest(ctx context.Context, brief llm.RequestBrief) (models.Request, error)
	Available() bool
}

// Input is the session state a tick decision reads.
type Input struct {
	Tick         int
	WorkHours    bool
	OpenRequests int
	NPC          models.Persona

	// Files lists the filesystem paths offered to the generator. It is only
	// called when generation starts.
	Files func() []string
}

// Options configures a Scheduler.
type Options struct {
	Difficulty models.Difficulty

	// Seed seeds the random source. 0 picks a random seed.
	Seed uint64

	// Scenarios is the fallback pool. Nil uses the embedded scenarios.
	Scenarios []content.Scenario

	Logger    *slog.Logger
	Decisions *logging.DecisionLogger
}

type result struct {
	token   uint64
	request models.Request
	err     error
	tier    int
	trap    bool
}

// Scheduler decides when requests spawn. Tick must be called from a single
// goroutine; generation runs in the background and is drained by Tick.
type Scheduler struct {
	difficulty models.Difficulty
	gen        Generator
	pool       *Pool
	rng        *rand.Rand
	logger     *slog.Logger
	decisions  *logging.DecisionLogger
	newID      func() string

	sinceLast  int
	interval   int
	spawned    int
	traps      int
	titles     []string
	generating bool

	// token tags generation started in the current session. Results carrying
	// an older token are discarded.
	token   uint64
	results chan result
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Scheduler. gen may be nil, in which case every spawn comes
// from the fallback pool.
func New(gen Generator, opts Options) *Scheduler {
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	scenarios := opts.Scenarios
	if scenarios == nil {
		scenarios = content.MustScenarios()
	}
	d := opts.Difficulty
	if d == "" {
		d = models.DifficultyNormal
	}

	s := &Scheduler{
		difficulty: d,
		gen:        gen,
		pool:       NewPool(scenarios, rng),
		rng:        rng,
		logger:     logging.OrDiscard(opts.Logger),
		decisions:  opts.Decisions,
		newID:      uuid.NewString,
		results:    make(chan result, constants.GenerationResultBuffer),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.interval = s.rollInterval()
	return s
}

// Reset starts a new session: counters and the pool are cleared, in-flight
// generation is cancelled and its result will be discarded.
func (s *Scheduler) Reset() {
	s.cancel()
	s.token++
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.sinceLast = 0
	s.spawned = 0
	s.traps = 0
	s.titles = nil
	s.generating = false
	s.pool.Reset()
	s.interval = s.rollInterval()
}

// Close cancels in-flight generation and waits for it to finish.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}

// WaitIdle blocks until no generation is running.
func (s *Scheduler) WaitIdle() {
	s.wg.Wait()
}

// Generating reports whether a generation is in flight.
func (s *Scheduler) Generating() bool { return s.generating }

// Spawned returns how many requests have spawned this session.
func (s *Scheduler) Spawned() int { return s.spawned }

// Titles returns the titles of spawned requests in order.
func (s *Scheduler) Titles() []string {
	return append([]string(nil), s.titles...)
}

// Tick advances the scheduler by one tick. It returns the requests that are
// ready to be added this tick: finished generations, fallbacks for failed
// generations and synchronous fallback spawns.
func (s *Scheduler) Tick(in Input) []models.Request {
	s.sinceLast++

	ready := s.drain(in)
	open := in.OpenRequests + len(ready)

	if reason := s.skipReason(in, open); reason != "" {
		if reason != "interval" {
			s.decisions.Decide("scheduler", "skip", map[string]any{
				"tick": in.Tick, "reason": reason, "open": open,
			})
		}
		return ready
	}

	tier := RollTier(s.spawned, s.rng.Float64)
	trap := RollTrap(s.spawned, s.traps, s.rng.Float64)

	if s.gen != nil && s.gen.Available() {
		s.startGeneration(in, tier, trap)
		return ready
	}
	if r, ok := s.fallback(in, tier, trap, "provider unavailable"); ok {
		ready = append(ready, r)
	}
	return ready
}

func (s *Scheduler) skipReason(in Input, open int) string {
	switch {
	case open >= MaxOpen(s.difficulty):
		return "cap"
	case s.sinceLast < s.interval:
		return "interval"
	case !in.WorkHours:
		return "off_hours"
	case s.generating:
		return "in_flight"
	default:
		return ""
	}
}

func (s *Scheduler) startGeneration(in Input, tier int, trap bool) {
	var files []string
	if in.Files != nil {
		files = in.Files()
	}
	brief := llm.RequestBrief{
		NPC:            in.NPC,
		Difficulty:     s.difficulty,
		Tier:           tier,
		AvailableFiles: files,
		PreviousTitles: s.Titles(),
		IsSecurityTrap: trap,
	}

	s.generating = true
	token := s.token
	ctx := s.ctx
	s.decisions.Decide("scheduler", "generate", map[string]any{
		"tick": in.Tick, "tier": tier, "trap": trap, "spawned": s.spawned,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		r, err := s.gen.GenerateRequest(ctx, brief)
		select {
		case s.results <- result{token: token, request: r, err: err, tier: tier, trap: trap}:
		case <-ctx.Done():
		}
	}()
}

// drain collects finished generations without blocking.
func (s *Scheduler) drain(in Input) []models.Request {
	var ready []models.Request
	for {
		select {
		case res := <-s.results:
			if res.token != s.token {
				s.logger.Debug("discarding stale generation result", "token", res.token)
				continue
			}
			s.generating = false
			if res.err != nil {
				s.logger.Info("request generation failed, using fallback scenario", "error", res.err)
				if r, ok := s.fallback(in, res.tier, res.trap, res.err.Error()); ok {
					ready = append(ready, r)
				}
				continue
			}
			r := res.request
			r.ID = s.newID()
			r.NPCID = in.NPC.ID
			r.ArrivalTick = in.Tick
			s.spawn(r)
			ready = append(ready, r)
		default:
			return ready
		}
	}
}

func (s *Scheduler) fallback(in Input, tier int, trap bool, reason string) (models.Request, bool) {
	last := ""
	if len(s.titles) > 0 {
		last = s.titles[len(s.titles)-1]
	}
	sc, ok := s.pool.Pick(tier, trap, last)
	if !ok {
		s.logger.Warn("no fallback scenario available", "tier", tier, "trap", trap)
		return models.Request{}, false
	}

	r := sc.Request(in.Tick, s.newID)
	r.NPCID = in.NPC.ID
	for i := range r.Objectives {
		if _, ok := r.Objectives[i].Params["npcId"]; ok {
			r.Objectives[i].Params["npcId"] = in.NPC.ID
		}
	}
	s.decisions.Decide("scheduler", "fallback", map[string]any{
		"tick": in.Tick, "tier": tier, "trap": trap, "scenario": sc.ID, "reason": reason,
	})
	s.spawn(r)
	return r, true
}

func (s *Scheduler) spawn(r models.Request) {
	s.titles = append(s.titles, r.Title)
	if r.IsSecurityTrap {
		s.traps++
	}
	s.spawned++
	s.sinceLast = 0
	s.interval = s.rollInterval()
	s.decisions.Decide("scheduler", "spawn", map[string]any{
		"tick": r.ArrivalTick, "request_id": r.ID, "title": r.Title,
		"tier": r.Tier, "trap": r.IsSecurityTrap, "source": string(r.Source),
	})
}

func (s *Scheduler) rollInterval() int {
	lo, hi := IntervalRange(s.difficulty)
	return lo + s.rng.IntN(hi-lo+1)
}
