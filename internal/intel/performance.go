package intel

import "sync"

// AgentPerformance accumulates outcomes per agent across orchestration
// runs.
type AgentPerformance struct {
	Agent         string  `json:"agent"`
	Consultations int     `json:"consultations"`
	Successes     int     `json:"successes"`
	Conflicts     int     `json:"conflicts"`
	AvgConfidence float64 `json:"avg_confidence"`
}

func (p *AgentPerformance) SuccessRate() float64 {
	if p.Consultations == 0 {
		return 0
	}
	return float64(p.Successes) / float64(p.Consultations)
}

type PerformanceTracker struct {
	mu     sync.RWMutex
	agents map[string]*AgentPerformance
}

func NewPerformanceTracker() *PerformanceTracker {
	return &PerformanceTracker{agents: make(map[string]*AgentPerformance)}
}

// RecordOutcome folds one consultation into the running averages.
func (t *PerformanceTracker) RecordOutcome(agent string, confidence float64, success bool, conflicts int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.agents[agent]
	if !ok {
		p = &AgentPerformance{Agent: agent}
		t.agents[agent] = p
	}

	p.AvgConfidence = (p.AvgConfidence*float64(p.Consultations) + confidence) / float64(p.Consultations+1)
	p.Consultations++
	if success {
		p.Successes++
	}
	p.Conflicts += conflicts
}

func (t *PerformanceTracker) Get(agent string) (AgentPerformance, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.agents[agent]
	if !ok {
		return AgentPerformance{}, false
	}
	return *p, true
}

func (t *PerformanceTracker) All() []AgentPerformance {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]AgentPerformance, 0, len(t.agents))
	for _, p := range t.agents {
		out = append(out, *p)
	}
	return out
}

// SystemHealth weighs success rate over confidence: agents that finish
// what they start matter more than agents that feel sure.
func (t *PerformanceTracker) SystemHealth() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.agents) == 0 {
		return 0
	}

	totalSuccess := 0.0
	totalConfidence := 0.0
	for _, p := range t.agents {
		totalSuccess += p.SuccessRate()
		totalConfidence += p.AvgConfidence
	}

	n := float64(len(t.agents))
	return 0.7*(totalSuccess/n) + 0.3*(totalConfidence/n)
}
