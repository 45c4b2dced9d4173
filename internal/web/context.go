package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/timesheet/internal/core"
	"github.com/JonMunkholm/timesheet/internal/web/middleware"
)

// withImportMetadata records where an import came from for the import log lines.
func withImportMetadata(ctx context.Context, r *http.Request, source string) context.Context {
	ctx = core.ContextWithSource(ctx, source)
	return core.ContextWithClientIP(ctx, middleware.ClientIP(r))
}
