// Package version pins the build version and the MCP protocol
// revisions the server speaks.
package version

const Version = "0.1.0"

// ProtocolVersion is offered when the client asks for a revision we do
// not know.
const ProtocolVersion = "2025-06-18"

var SupportedProtocolVersions = []string{
	"2025-06-18",
	"2025-03-26",
	"2024-11-05",
}
