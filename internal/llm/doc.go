// Package llm generates grounded answers from distilled context using a
// local Ollama server. Responses stream token by token through a caller
// supplied callback so interactive surfaces can print as they arrive.
package llm
