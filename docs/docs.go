// Package docs registers the OpenAPI description served at /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/sync": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync state of every section",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Reconcile every section",
                "parameters": [
                    {"description": "direction, dry_run and conflict_resolution", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/syncRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorPayload"}}
                }
            }
        },
        "/sync/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Staleness of every section",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/sync/health/{section}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Staleness of one section",
                "parameters": [
                    {"type": "string", "description": "section name", "name": "section", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorPayload"}}
                }
            }
        },
        "/sync/{section}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Current document of a section",
                "parameters": [
                    {"type": "string", "description": "section name", "name": "section", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorPayload"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Reconcile one section",
                "parameters": [
                    {"type": "string", "description": "section name", "name": "section", "in": "path", "required": true},
                    {"description": "direction, dry_run, conflict_resolution and optional document content", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/syncRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errorPayload"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorPayload"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errorPayload"}}
                }
            }
        },
        "/manual/sections": {
            "get": {
                "produces": ["application/json"],
                "tags": ["manual"],
                "summary": "Operations manual sections",
                "parameters": [
                    {"type": "string", "description": "case-insensitive filter", "name": "q", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errorPayload"}}
                }
            }
        }
    },
    "definitions": {
        "errorPayload": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "syncRequest": {
            "type": "object",
            "properties": {
                "direction": {"type": "string", "enum": ["document_to_store", "store_to_document", "bidirectional"]},
                "dry_run": {"type": "boolean"},
                "conflict_resolution": {"type": "string", "enum": ["prefer_document", "prefer_store", "manual"]},
                "content": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Nexus Sync API",
	Description:      "Bidirectional sync between section documents and the dashboard store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
