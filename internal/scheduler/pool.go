package scheduler

import (
	"math/rand/v2"

	"github.com/nvandessel/clawback/internal/content"
)

// Pool hands out fallback scenarios. Within a tier it avoids repeating a
// scenario until every scenario of that tier has been used, and never picks
// the most recent title twice in a row when there is an alternative.
type Pool struct {
	scenarios []content.Scenario
	used      map[int]bool
	rng       *rand.Rand
}

// NewPool creates a pool over scenarios.
func NewPool(scenarios []content.Scenario, rng *rand.Rand) *Pool {
	return &Pool{scenarios: scenarios, used: make(map[int]bool), rng: rng}
}

// Reset forgets which scenarios have been used.
func (p *Pool) Reset() {
	clear(p.used)
}

// Pick returns a scenario of tier, or a security trap scenario of any tier
// when trap is set. A tier holding only traps (tier 4) yields a trap even when
// trap is unset. lastTitle is avoided when possible. ok is false when the pool
// holds no scenario of the requested kind.
func (p *Pool) Pick(tier int, trap bool, lastTitle string) (content.Scenario, bool) {
	match := func(s content.Scenario) bool {
		if trap {
			return s.IsSecurityTrap
		}
		return !s.IsSecurityTrap && s.Tier == tier
	}
	if !trap && !p.any(match) {
		match = func(s content.Scenario) bool { return s.Tier == tier }
	}

	candidates := p.candidates(match, lastTitle, true)
	if len(candidates) == 0 {
		for i, s := range p.scenarios {
			if match(s) {
				delete(p.used, i)
			}
		}
		candidates = p.candidates(match, lastTitle, true)
	}
	if len(candidates) == 0 {
		// Only the last title is left.
		candidates = p.candidates(match, "", false)
	}
	if len(candidates) == 0 {
		return content.Scenario{}, false
	}

	i := candidates[p.rng.IntN(len(candidates))]
	p.used[i] = true
	return p.scenarios[i], true
}

func (p *Pool) any(match func(content.Scenario) bool) bool {
	for _, s := range p.scenarios {
		if match(s) {
			return true
		}
	}
	return false
}

func (p *Pool) candidates(match func(content.Scenario) bool, lastTitle string, skipUsed bool) []int {
	var out []int
	for i, s := range p.scenarios {
		if !match(s) || (skipUsed && p.used[i]) {
			continue
		}
		if lastTitle != "" && s.Title == lastTitle {
			continue
		}
		out = append(out, i)
	}
	return out
}
