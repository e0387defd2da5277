// Package api embeds the OpenAPI document describing the HTTP API.
package api

import (
    "context"
    _ "embed"
    "fmt"

    "github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var document []byte

// Spec parses and validates the embedded OpenAPI document.
func Spec() (*openapi3.T, error) {
    loader := openapi3.NewLoader()
    doc, err := loader.LoadFromData(document)
    if err != nil {
        return nil, fmt.Errorf("load openapi document: %w", err)
    }
    if err := doc.Validate(context.Background()); err != nil {
        return nil, fmt.Errorf("invalid openapi document: %w", err)
    }
    return doc, nil
}
