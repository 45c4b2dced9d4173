package core

import "context"

type contextKey string

const (
	ctxKeyClientIP contextKey = "import_client_ip"
	ctxKeySource   contextKey = "import_source"
)

// Import sources recorded on log lines.
const (
	SourceUpload  = "upload"
	SourceBulk    = "bulk"
	SourceDropDir = "drop_dir"
	SourceCLI     = "cli"
)

// ContextWithClientIP records the requesting address for import logging.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// ContextWithSource records which entry point started an import.
func ContextWithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, ctxKeySource, source)
}

// ClientIPFromContext extracts the requesting address.
func ClientIPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClientIP).(string); ok {
		return v
	}
	return ""
}

// SourceFromContext extracts the import source.
func SourceFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeySource).(string); ok {
		return v
	}
	return ""
}

// importAttrs returns the context fields worth logging on import lines.
func importAttrs(ctx context.Context) []any {
	var attrs []any
	if src := SourceFromContext(ctx); src != "" {
		attrs = append(attrs, "source", src)
	}
	if ip := ClientIPFromContext(ctx); ip != "" {
		attrs = append(attrs, "client_ip", ip)
	}
	return attrs
}
