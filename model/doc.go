// Package model defines the text-completion backend contract consumed by
// agents, along with a fair per-thread scheduling queue for a single shared
// backend and a deterministic mock for tests. Provider adapters live in
// sub-packages (openai, anthropic).
package model
