// Package methodology validates agent output against the engineering
// frameworks each persona claims to follow.
package methodology

type Framework string

const (
	CleanArchitecture Framework = "clean_architecture"
	SOLID             Framework = "solid"
	OWASP             Framework = "owasp_top10"
	NISTCSF           Framework = "nist_csf"
	DesignThinking    Framework = "design_thinking"
	RESTAPI           Framework = "rest_api"
	Microservices     Framework = "microservices"
)

type frameworkSpec struct {
	// concepts an adherent response is expected to touch
	concepts []string
	// violation phrase -> severity of the issue it raises
	violations map[string]IssueSeverity
}

var frameworks = map[Framework]frameworkSpec{
	CleanArchitecture: {
		concepts: []string{
			"dependency inversion", "layer", "boundary", "use case", "entity",
		},
		violations: map[string]IssueSeverity{
			"circular dependency":    SeverityCritical,
			"business logic in the ui": SeverityError,
			"god object":             SeverityError,
		},
	},
	SOLID: {
		concepts: []string{
			"single responsibility", "open closed", "interface segregation",
			"dependency injection", "liskov",
		},
		violations: map[string]IssueSeverity{
			"god object":      SeverityCritical,
			"tight coupling":  SeverityError,
			"leaky abstraction": SeverityWarning,
		},
	},
	OWASP: {
		concepts: []string{
			"input validation", "authentication", "authorization",
			"encryption", "injection", "access control",
		},
		violations: map[string]IssueSeverity{
			"plaintext password":    SeverityCritical,
			"string concatenation in sql": SeverityCritical,
			"disable validation":    SeverityError,
			"wildcard cors":         SeverityWarning,
		},
	},
	NISTCSF: {
		concepts: []string{
			"identify", "protect", "detect", "respond", "recover",
		},
		violations: map[string]IssueSeverity{
			"no monitoring": SeverityError,
			"no incident":   SeverityWarning,
		},
	},
	DesignThinking: {
		concepts: []string{
			"empathize", "user research", "prototype", "usability",
			"accessibility", "iterate",
		},
		violations: map[string]IssueSeverity{
			"skip user testing": SeverityError,
		},
	},
	RESTAPI: {
		concepts: []string{
			"resource", "http status", "versioning", "idempotent", "pagination",
		},
		violations: map[string]IssueSeverity{
			"verbs in urls":   SeverityWarning,
			"breaking change": SeverityError,
		},
	},
	Microservices: {
		concepts: []string{
			"bounded context", "service boundary", "api contract",
			"independent deployment", "event",
		},
		violations: map[string]IssueSeverity{
			"shared database":      SeverityError,
			"distributed monolith": SeverityCritical,
		},
	},
}

// Known reports whether the framework name has a spec.
func Known(f Framework) bool {
	_, ok := frameworks[f]
	return ok
}

// ForAgent maps the built-in personas to the frameworks they are
// validated against.
func ForAgent(agent string) []Framework {
	switch agent {
	case "senior-architect":
		return []Framework{CleanArchitecture, SOLID, Microservices}
	case "security-consultant":
		return []Framework{OWASP, NISTCSF}
	case "ux-strategist":
		return []Framework{DesignThinking}
	case "backend-builder":
		return []Framework{SOLID, RESTAPI}
	case "frontend-builder":
		return []Framework{SOLID, DesignThinking}
	default:
		return []Framework{SOLID}
	}
}
