// Package entities defines the request and response envelopes exchanged between
// the Cynthia host and a plugin. These types serve dual purpose: domain entities
// AND JSON wire format DTOs.
//
// Both directions use the same {id, body} envelope. Request bodies are a tagged
// union discriminated by "for", response bodies by "as".
package entities
