package orchestrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/kortex-labs/memory-enforce/internal/intel"
)

// Consultant produces one persona's take on a task. The template
// implementation below is the offline default; an MCP client can plug
// in a model-backed one.
type Consultant interface {
	Consult(ctx context.Context, persona *Persona, req *Request) (*intel.AgentResponse, error)
}

// TemplateConsultant renders a deterministic response from the persona
// configuration. Useful for dry runs and as the fallback when no model
// is wired in.
type TemplateConsultant struct{}

func (TemplateConsultant) Consult(ctx context.Context, persona *Persona, req *Request) (*intel.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := persona.Identity.Name

	var b strings.Builder
	fmt.Fprintf(&b, "%s assessment of: %s.", persona.Identity.Role, req.Objective)
	if len(persona.Capabilities) > 0 {
		fmt.Fprintf(&b, " Applying %s.", strings.Join(persona.Capabilities, ", "))
	}
	if guidance, ok := req.Context["architect_guidance"]; ok && name != "senior-architect" {
		fmt.Fprintf(&b, " Following direction: %s", guidance)
	}

	response := &intel.AgentResponse{
		Agent:          name,
		Recommendation: b.String(),
		Methodology:    strings.Join(persona.Methodology, ", "),
		Confidence:     0.85,
	}

	switch name {
	case "senior-architect":
		response.Analysis = "System design analysis with component boundaries and scalability guidance."
		response.Decisions = map[string]string{
			"architecture pattern": "Evaluate microservices against a modular monolith",
			"technology stack":     "Select frameworks matching the stated constraints",
		}
	case "security-consultant":
		response.Analysis = "Security analysis with a threat model and compliance requirements."
		response.Decisions = map[string]string{
			"security controls": "Authentication and authorization approach",
			"data protection":   "Encryption and data handling requirements",
		}
	}

	return response, nil
}
