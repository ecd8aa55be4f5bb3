package ports

// DiagnosticSink accepts free-text lines tagged with a severity label.
// It is purely observational and has no effect on the protocol.
type DiagnosticSink interface {
	Log(v any)
	Error(v any)
	Warn(v any)
	Info(v any)
	Debug(v any)
}
