// Package testutil contains stubs and recorders shared by package tests:
// scripted responders and tools that satisfy the agent.Responder and
// tool.Tool contracts structurally, plus a CallLog for asserting the order in
// which collaborators were invoked. Not intended for production usage.
package testutil
