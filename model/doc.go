// Package model defines the provider-agnostic abstractions for talking to
// language models:
//   - one Generate call covering streaming and non-streaming generation
//   - normalized tool definitions and function call parts
//   - Collect, which drains a generation into its final response
//   - MockModel, a scripted model for tests
//
// Providers (openai for OpenAI and OpenAI-compatible endpoints such as Groq,
// anthropic for Claude) implement Model so agents and flows stay decoupled
// from vendor SDKs.
package model
