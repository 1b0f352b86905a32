// Package core provides the foundational request-scoped types shared by the
// tutormesh agents:
//
//   - Content / Part (role tagged messages with text, data and function parts)
//   - Payload (plain text or link records returned by tools and models)
//   - State (the write-once state threaded through the supervisor pipeline)
//   - ToolContext (scoped execution surface handed to tools)
//   - RoundTripLimiter (bound on reasoning/tool-execution round trips)
//
// Nothing in this package persists across requests. A State is created when a
// question arrives and discarded once the answer has been emitted.
package core
