// Package generation defines the boundary between the application core
// and external AI/LLM services. It abstracts the details of LLM API
// integration (Gemini), allowing the application to generate flashcards
// from source text without coupling to a specific provider.
package generation
