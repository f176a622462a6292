package orchestrate

import (
	"github.com/kortex-labs/memory-enforce/internal/intel"
)

// Resolution records which response won a conflict and how.
type Resolution struct {
	Winner            *intel.AgentResponse `json:"winner"`
	Method            string               `json:"resolution_method"`
	ConflictsResolved int                  `json:"conflicts_resolved"`
}

// Resolve picks the response with the highest confidence; ties go to
// the agent higher in the hierarchy.
func Resolve(responses []*intel.AgentResponse) *Resolution {
	if len(responses) == 0 {
		return nil
	}

	best := responses[0]
	for _, r := range responses[1:] {
		if r.Confidence > best.Confidence {
			best = r
			continue
		}
		if r.Confidence == best.Confidence && intel.HierarchyRank(r.Agent) > intel.HierarchyRank(best.Agent) {
			best = r
		}
	}

	return &Resolution{
		Winner:            best,
		Method:            "confidence_weighted",
		ConflictsResolved: len(responses) - 1,
	}
}
