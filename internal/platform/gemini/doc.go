// Package gemini implements the generation.Generator interface using
// Google's Gemini API. It owns the prompt template, the response
// schema, and the retry policy for transient API failures; everything
// else about generation policy (quota, persistence) lives in the
// service layer.
package gemini
