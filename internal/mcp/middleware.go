package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// loginGateMiddleware rejects calls to project tools until a login is stored.
// Session, theme and protocol methods pass through.
func loginGateMiddleware(sessions SessionService) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" || sessions == nil {
				return next(ctx, method, req)
			}
			call, ok := req.(*sdkmcp.CallToolRequest)
			if !ok || call.Params == nil || !loginRequired[call.Params.Name] {
				return next(ctx, method, req)
			}
			if err := sessions.RequireLogin(ctx); err != nil {
				if apiErr := MapError(err); apiErr != nil {
					return apiErrorResult(apiErr), nil
				}
				return nil, err
			}
			return next(ctx, method, req)
		}
	}
}
