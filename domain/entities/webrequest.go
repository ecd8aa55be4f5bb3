package entities

import "strings"

// WebRequest is the raw web request the host hands to plugin code that answers
// HTTP-shaped requests. It arrives inside a request body of a kind this SDK
// does not classify; use UnknownRequestBody.Decode to obtain it.
type WebRequest struct {
	Headers map[string]string `json:"headers"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Body    string            `json:"body"`
}

// Header returns the value of a request header, matching the name exactly first
// and case-insensitively second.
func (r *WebRequest) Header(name string) (string, bool) {
	if v, ok := r.Headers[name]; ok {
		return v, true
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}
