// Package docs registers the OpenAPI description of the proxy surface with
// swag. Regenerate with `swag init -g cmd/procproxy/docs.go -o internal/httpapi/docs`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/processes/owned": {
            "get": {
                "description": "Returns the caller's processes as a JSON array, whatever shape the upstream used.",
                "produces": ["application/json"],
                "tags": ["processes"],
                "summary": "List owned processes",
                "parameters": [
                    {"type": "string", "description": "Bearer token (bare or JSON-wrapped)", "name": "Authorization", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.ProcessSummary"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/processes/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["processes"],
                "summary": "Get one process",
                "parameters": [
                    {"type": "string", "description": "Process id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ProcessDetail"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/processes/{id}/svg": {
            "get": {
                "description": "Any upstream failure is reported as 404: a missing preview is not an error for the page.",
                "produces": ["image/svg+xml"],
                "tags": ["processes"],
                "summary": "Get a process preview image",
                "parameters": [
                    {"type": "string", "description": "Process id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "file"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 502},
                "error": {"type": "string", "example": "upstream unavailable"},
                "kind": {"type": "string", "example": "upstream"}
            }
        },
        "types.ProcessSummary": {
            "type": "object",
            "properties": {
                "displayName": {"type": "string", "example": "Widget"},
                "id": {"type": "string", "example": "p1"}
            }
        },
        "types.ProcessDetail": {
            "type": "object",
            "properties": {
                "attributes": {"type": "object", "additionalProperties": true},
                "displayName": {"type": "string", "example": "Widget"},
                "id": {"type": "string", "example": "p1"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "procproxy API",
	Description:      "Authenticated proxy for a user's remote processes and their preview images.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
