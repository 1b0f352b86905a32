// Package agent contains the specialists and the coordinator that answer a
// student's question:
//
//   - RetrievalAgent masks failures of a document-grounded Responder
//   - ToolAgent drives the tool loop (encyclopedia, web search, video search)
//     and renders its final message
//   - Supervisor runs retrieval, tools and fusion as ordered pipeline steps
//     over a request-scoped core.State
//   - Selector returns the raw tool output for video questions and the fused
//     answer otherwise
package agent
