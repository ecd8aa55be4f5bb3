package plugin

import (
	"context"
	"fmt"

	"github.com/cynthia-web/plugin-sdk-go/application/responder"
	"github.com/cynthia-web/plugin-sdk-go/application/response"
	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/errors"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
)

// KindWebRequest is the request kind hosts use for raw web requests routed to a plugin.
const KindWebRequest = "WebRequest"

// EchoTest answers a Test request with its own test string.
func EchoTest(_ context.Context, req *entities.Request) (entities.ResponseBody, error) {
	body, ok := req.Test()
	if !ok {
		return nil, fmt.Errorf("expected a Test request, got %q", req.Kind())
	}
	return response.OkString(body.Test), nil
}

// Unsupported rejects any request it is given.
func Unsupported(_ context.Context, req *entities.Request) (entities.ResponseBody, error) {
	return nil, &errors.UnsupportedKindError{Kind: req.Kind()}
}

// RenderContent answers ContentRenderRequests with the output of r as an
// OkString. Use it with WithContentRenderHandler.
func RenderContent(r ports.ContentRenderer) func(context.Context, *entities.ContentRenderRequestBody) (entities.ResponseBody, error) {
	return func(_ context.Context, body *entities.ContentRenderRequestBody) (entities.ResponseBody, error) {
		out, err := r.Render(body)
		if err != nil {
			return nil, err
		}
		return response.OkString(out), nil
	}
}

// WebHandler adapts a function producing a Responder into a HandlerFunc. The
// responder is folded into a WebResponse, or into an Error when it fails.
func WebHandler(fn func(ctx context.Context, req *entities.Request) responder.Responder) HandlerFunc {
	return func(ctx context.Context, req *entities.Request) (entities.ResponseBody, error) {
		return responder.Fold(fn(ctx, req)), nil
	}
}

// DecodeWebRequest reads the raw web request carried by req.
func DecodeWebRequest(req *entities.Request) (*entities.WebRequest, error) {
	unknown, ok := req.Unknown()
	if !ok {
		return nil, fmt.Errorf("request %d of kind %q does not carry a web request", req.ID, req.Kind())
	}
	var web entities.WebRequest
	if err := unknown.Decode(&web); err != nil {
		return nil, &errors.ValidationError{Kind: req.Kind(), Err: err}
	}
	return &web, nil
}
