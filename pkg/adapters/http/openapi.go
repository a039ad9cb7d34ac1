package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	oapi "github.com/oapi-codegen/runtime"

	"github.com/aretw0/courselet/api"
)

// StageMove names an instructor move on a live question.
type StageMove string

// Stage moves accepted by MoveLiveQuestion.
const (
	MoveResponse   StageMove = "response"
	MoveAssessment StageMove = "assessment"
	MoveEnd        StageMove = "end"
)

func mustOpenAPIRouter() routers.Router {
	doc, err := api.Load(context.Background())
	if err != nil {
		panic(fmt.Sprintf("http: %v", err))
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		panic(fmt.Sprintf("http: openapi router: %v", err))
	}
	return router
}

// validateRequests rejects requests that do not match the OpenAPI document.
// Requests the document does not describe pass through to chi.
func (s *Server) validateRequests(router routers.Router) func(http.Handler) http.Handler {
	opts := &openapi3filter.Options{AuthenticationFunc: openapi3filter.NoopAuthenticationFunc}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route, params, err := router.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			// Bodies without a content type are read as JSON.
			if r.ContentLength != 0 && r.Header.Get("Content-Type") == "" {
				r.Header.Set("Content-Type", "application/json")
			}
			err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: params,
				Route:      route,
				Options:    opts,
			})
			if err != nil {
				s.writeError(w, r, &BadRequestError{Err: err})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// pathParam binds a simple-style path parameter.
func pathParam[T any](r *http.Request, name string) (T, error) {
	var v T
	err := oapi.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v, oapi.BindStyledParameterOptions{
		ParamLocation: oapi.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return v, &BadRequestError{Err: fmt.Errorf("invalid format for parameter %s: %w", name, err)}
	}
	return v, nil
}

// GetOpenAPI handles GET /openapi.yaml.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	if _, err := w.Write(api.Spec); err != nil {
		s.logger.Error("write openapi document", "err", err)
	}
}

// GetSwagger serves a Swagger UI page for /openapi.yaml.
func (s *Server) GetSwagger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(swaggerHTML))
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Courselet API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
        window.ui = SwaggerUIBundle({ url: '/openapi.yaml', dom_id: '#swagger-ui' });
    };
</script>
</body>
</html>
`
