package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nvandessel/clawback/internal/content"
	"github.com/nvandessel/clawback/internal/llm"
	"github.com/nvandessel/clawback/internal/models"
)

type fakeGen struct {
	mu        sync.Mutex
	briefs    []llm.RequestBrief
	req       models.Request
	err       error
	block     chan struct{}
	available bool
}

func newFakeGen() *fakeGen {
	return &fakeGen{
		available: true,
		req: models.Request{
			Title:  "Generated task",
			Tier:   1,
			Status: models.StatusIncoming,
			Source: models.SourceGenerated,
			Objectives: []models.Objective{
				{ID: "obj-0", Validator: "chat_reply", Params: models.Params{"npcId": "sarah"}},
			},
			DeadlineTicks: 60,
			BasePoints:    50,
		},
	}
}

func (f *fakeGen) GenerateRequest(ctx context.Context, brief llm.RequestBrief) (models.Request, error) {
	f.mu.Lock()
	f.briefs = append(f.briefs, brief)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return models.Request{}, ctx.Err()
		}
	}
	return f.req, f.err
}

func (f *fakeGen) Available() bool { return f.available }

func (f *fakeGen) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.briefs)
}

var testNPC = models.Persona{ID: "timmy", Name: "Timmy", Role: "Intern"}

func input(tick int) Input {
	return Input{
		Tick:      tick,
		WorkHours: true,
		NPC:       testNPC,
		Files:     func() []string { return []string{"/home/user/documents/todo.md"} },
	}
}

// runUntilSpawn ticks with no open requests until something spawns.
func runUntilSpawn(t *testing.T, s *Scheduler, start, maxTicks int) ([]models.Request, int) {
	t.Helper()
	for tick := start; tick < start+maxTicks; tick++ {
		if got := s.Tick(input(tick)); len(got) > 0 {
			return got, tick
		}
	}
	t.Fatalf("nothing spawned within %d ticks", maxTicks)
	return nil, 0
}

func TestTick_SpawnsWithinInterval(t *testing.T) {
	for _, d := range []models.Difficulty{models.DifficultyEasy, models.DifficultyNormal, models.DifficultyHard} {
		t.Run(string(d), func(t *testing.T) {
			s := New(nil, Options{Difficulty: d, Seed: 42})
			lo, hi := IntervalRange(d)

			got, tick := runUntilSpawn(t, s, 1, hi+1)
			if tick < lo || tick > hi {
				t.Errorf("first spawn at tick %d, want within [%d, %d]", tick, lo, hi)
			}
			if len(got) != 1 || got[0].Source != models.SourceFallback {
				t.Fatalf("spawned = %+v", got)
			}
			if got[0].ArrivalTick != tick {
				t.Errorf("arrival = %d, want %d", got[0].ArrivalTick, tick)
			}
			if !got[0].IsSecurityTrap && got[0].Tier != 1 {
				t.Errorf("first spawn tier = %d, want 1", got[0].Tier)
			}
		})
	}
}

func TestTick_RespectsCap(t *testing.T) {
	s := New(nil, Options{Difficulty: models.DifficultyNormal, Seed: 1})
	for tick := 1; tick < 200; tick++ {
		in := input(tick)
		in.OpenRequests = MaxOpen(models.DifficultyNormal)
		if got := s.Tick(in); len(got) != 0 {
			t.Fatalf("spawned at tick %d with the cap reached", tick)
		}
	}
}

func TestTick_OnlyDuringWorkHours(t *testing.T) {
	s := New(nil, Options{Difficulty: models.DifficultyHard, Seed: 1})
	for tick := 1; tick < 100; tick++ {
		in := input(tick)
		in.WorkHours = false
		if got := s.Tick(in); len(got) != 0 {
			t.Fatalf("spawned at tick %d outside work hours", tick)
		}
	}
	// The interval has long elapsed, so the first work-hours tick spawns.
	if got := s.Tick(input(100)); len(got) != 1 {
		t.Errorf("expected a spawn once work hours resume, got %d", len(got))
	}
}

func TestTick_FallbackUsesSelectedNPC(t *testing.T) {
	s := New(nil, Options{Difficulty: models.DifficultyHard, Seed: 7})
	tick := 1
	for spawns := 0; spawns < 12; spawns++ {
		got, at := runUntilSpawn(t, s, tick, 50)
		tick = at + 1
		r := got[0]
		if r.NPCID != testNPC.ID {
			t.Errorf("%s: npc = %q", r.Title, r.NPCID)
		}
		for _, o := range r.Objectives {
			if id, ok := o.Params["npcId"]; ok && id != testNPC.ID {
				t.Errorf("%s: objective npcId = %v", r.Title, id)
			}
		}
	}
}

func TestTick_TrapGuaranteed(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		s := New(nil, Options{Difficulty: models.DifficultyHard, Seed: seed})
		tick := 1
		traps := 0
		for spawns := 0; spawns < 5; spawns++ {
			got, at := runUntilSpawn(t, s, tick, 50)
			tick = at + 1
			if got[0].IsSecurityTrap {
				traps++
			}
		}
		if traps == 0 {
			t.Errorf("seed %d: no trap within the first five spawns", seed)
		}
	}
}

func TestTick_Generation(t *testing.T) {
	gen := newFakeGen()
	s := New(gen, Options{Difficulty: models.DifficultyHard, Seed: 3})

	tick := 1
	for ; tick < 50 && !s.Generating(); tick++ {
		if got := s.Tick(input(tick)); len(got) != 0 {
			t.Fatalf("request returned before generation finished")
		}
	}
	s.WaitIdle()
	if gen.calls() != 1 {
		t.Fatalf("generation calls = %d, want 1", gen.calls())
	}
	brief := gen.briefs[0]
	if brief.NPC.ID != testNPC.ID || brief.Tier != 1 || len(brief.AvailableFiles) != 1 {
		t.Errorf("brief = %+v", brief)
	}

	got := s.Tick(input(tick))
	if len(got) != 1 {
		t.Fatalf("drained %d requests, want 1", len(got))
	}
	r := got[0]
	if r.ID == "" || r.NPCID != testNPC.ID || r.ArrivalTick != tick || r.Source != models.SourceGenerated {
		t.Errorf("request = %+v", r)
	}
	if s.Generating() {
		t.Error("still generating after drain")
	}
	if titles := s.Titles(); len(titles) != 1 || titles[0] != "Generated task" {
		t.Errorf("titles = %v", titles)
	}
}

func TestTick_SingleFlight(t *testing.T) {
	gen := newFakeGen()
	gen.block = make(chan struct{})
	s := New(gen, Options{Difficulty: models.DifficultyHard, Seed: 3})
	defer s.Close()

	for tick := 1; tick < 200; tick++ {
		s.Tick(input(tick))
	}
	if !s.Generating() {
		t.Error("Generating() = false with a blocked generation")
	}
	close(gen.block)
	s.WaitIdle()
	if gen.calls() != 1 {
		t.Errorf("generation calls = %d, want 1 while in flight", gen.calls())
	}
}

func TestTick_GenerationFailureFallsBack(t *testing.T) {
	gen := newFakeGen()
	gen.err = errors.New("provider call failed")
	s := New(gen, Options{Difficulty: models.DifficultyHard, Seed: 3})

	tick := 1
	for ; tick < 50 && !s.Generating(); tick++ {
		s.Tick(input(tick))
	}
	s.WaitIdle()
	got := s.Tick(input(tick))
	if len(got) != 1 || got[0].Source != models.SourceFallback {
		t.Fatalf("got %+v, want one fallback request", got)
	}
	if got[0].NPCID != testNPC.ID {
		t.Errorf("npc = %q", got[0].NPCID)
	}
}

func TestReset_DiscardsStaleGeneration(t *testing.T) {
	gen := newFakeGen()
	gen.block = make(chan struct{})
	s := New(gen, Options{Difficulty: models.DifficultyHard, Seed: 3})

	tick := 1
	for ; tick < 50 && !s.Generating(); tick++ {
		s.Tick(input(tick))
	}
	s.Reset()
	s.WaitIdle()

	if s.Generating() || s.Spawned() != 0 {
		t.Fatalf("state not reset: generating=%v spawned=%d", s.Generating(), s.Spawned())
	}
	for i := 0; i < 5; i++ {
		in := input(tick + i)
		in.OpenRequests = MaxOpen(models.DifficultyHard)
		if got := s.Tick(in); len(got) != 0 {
			t.Fatalf("stale generation result delivered: %+v", got)
		}
	}
}

func TestTick_UnavailableGeneratorSpawnsSynchronously(t *testing.T) {
	gen := newFakeGen()
	gen.available = false
	s := New(gen, Options{Difficulty: models.DifficultyNormal, Seed: 5})

	got, _ := runUntilSpawn(t, s, 1, 40)
	if got[0].Source != models.SourceFallback {
		t.Errorf("source = %s", got[0].Source)
	}
	if gen.calls() != 0 {
		t.Errorf("unavailable generator called %d times", gen.calls())
	}
}

func fixed(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestRollTier(t *testing.T) {
	tests := []struct {
		name    string
		spawned int
		rolls   []float64
		want    int
	}{
		{"warmup", 0, []float64{0.99}, 1},
		{"warmup end", 2, []float64{0.99}, 1},
		{"early low", 3, []float64{0.69}, 1},
		{"early high", 5, []float64{0.7}, 2},
		{"mid tier 2", 6, []float64{0.49}, 2},
		{"mid tier 3", 9, []float64{0.5, 0.69}, 3},
		{"mid tier 1", 9, []float64{0.5, 0.7}, 1},
		{"late 1", 10, []float64{0.19}, 1},
		{"late 2", 12, []float64{0.2}, 2},
		{"late 3", 14, []float64{0.79}, 3},
		{"late 4", 14, []float64{0.8}, 4},
		{"endless 1", 15, []float64{0.09}, 1},
		{"endless 2", 20, []float64{0.34}, 2},
		{"endless 3", 30, []float64{0.69}, 3},
		{"endless 4", 99, []float64{0.7}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RollTier(tt.spawned, fixed(tt.rolls...)); got != tt.want {
				t.Errorf("RollTier(%d) = %d, want %d", tt.spawned, got, tt.want)
			}
		})
	}
}

func TestRollTrap(t *testing.T) {
	if !RollTrap(4, 0, fixed(0.99)) {
		t.Error("trap not forced on the fifth spawn")
	}
	if RollTrap(4, 1, fixed(0.99)) {
		t.Error("trap forced although one already spawned")
	}
	if RollTrap(2, 0, fixed(0.15)) {
		t.Error("roll at the threshold should not trap")
	}
	if !RollTrap(2, 0, fixed(0.14)) {
		t.Error("roll under the threshold should trap")
	}
}

func TestLimits(t *testing.T) {
	if MaxOpen(models.DifficultyEasy) != 1 || MaxOpen(models.DifficultyNormal) != 2 || MaxOpen(models.DifficultyHard) != 3 {
		t.Error("unexpected caps")
	}
	if lo, hi := IntervalRange(models.DifficultyNormal); lo != 15 || hi != 30 {
		t.Errorf("normal interval = %d-%d", lo, hi)
	}
}

func TestPool(t *testing.T) {
	scenarios := []content.Scenario{
		{ID: "a", Title: "A", Tier: 1},
		{ID: "b", Title: "B", Tier: 1},
		{ID: "c", Title: "C", Tier: 2},
		{ID: "t", Title: "T", Tier: 4, IsSecurityTrap: true},
	}
	s := New(nil, Options{Seed: 9, Scenarios: scenarios})
	p := s.pool

	first, ok := p.Pick(1, false, "")
	if !ok {
		t.Fatal("no tier 1 scenario")
	}
	second, _ := p.Pick(1, false, first.Title)
	if second.ID == first.ID {
		t.Errorf("picked %s twice before exhausting the tier", first.ID)
	}

	// Exhausted: resets, but still avoids the last title.
	third, _ := p.Pick(1, false, second.Title)
	if third.Title == second.Title {
		t.Errorf("repeated last title %s", third.Title)
	}

	// A single-scenario tier may repeat its only title.
	c1, _ := p.Pick(2, false, "")
	c2, ok := p.Pick(2, false, c1.Title)
	if !ok || c2.ID != "c" {
		t.Errorf("single scenario tier: %+v %v", c2, ok)
	}

	trap, ok := p.Pick(1, true, "")
	if !ok || !trap.IsSecurityTrap {
		t.Errorf("trap pick = %+v", trap)
	}
	if _, ok := p.Pick(3, false, ""); ok {
		t.Error("picked from an empty tier")
	}

	// Tier 4 holds only traps, so it yields one without the trap roll.
	t4, ok := p.Pick(4, false, "")
	if !ok || t4.ID != "t" {
		t.Errorf("tier 4 pick = %+v %v, want the trap scenario", t4, ok)
	}
}

func TestTick_GeneratedTrapIndependentOfTier(t *testing.T) {
	gen := newFakeGen()
	s := New(gen, Options{Difficulty: models.DifficultyHard, Seed: 17})

	tier4, tier4Traps := 0, 0
	for tick := 1; tick < 20000 && tier4 < 20; tick++ {
		s.WaitIdle()
		s.Tick(input(tick))
		tier4, tier4Traps = 0, 0
		gen.mu.Lock()
		for _, b := range gen.briefs {
			if b.Tier == 4 {
				tier4++
				if b.IsSecurityTrap {
					tier4Traps++
				}
			}
		}
		gen.mu.Unlock()
	}
	if tier4 < 20 {
		t.Fatalf("only %d tier 4 generations", tier4)
	}
	if tier4Traps == tier4 {
		t.Errorf("all %d tier 4 generations were traps; the trap roll must not depend on tier", tier4)
	}
}
