package ports

import "github.com/cynthia-web/plugin-sdk-go/domain/entities"

// ContentRenderer renders a publication through the template named in the request.
type ContentRenderer interface {
	// Render returns the rendered document for a ContentRenderRequest.
	Render(body *entities.ContentRenderRequestBody) (string, error)
}
