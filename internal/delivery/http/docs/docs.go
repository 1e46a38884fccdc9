// Package docs registers the auth server's OpenAPI document with swag.
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
        "/callback": {
            "get": {
                "description": "Exchanges the authorization code, stores the tokens under the Discord user named by state and refreshes the station snapshot.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Complete EVE SSO login",
                "parameters": [
                    {"type": "string", "description": "Authorization code", "name": "code", "in": "query", "required": true},
                    {"type": "string", "description": "Signed login state", "name": "state", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "data contains the linked character", "schema": {"$ref": "#/definitions/http.APIResponse"}},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/http.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/http.APIResponse"}},
                    "502": {"description": "error.code: bad_gateway", "schema": {"$ref": "#/definitions/http.APIResponse"}}
                }
            }
        },
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["ops"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.APIResponse"}}
                }
            }
        },
        "/login": {
            "get": {
                "description": "Redirects to the EVE Online login page. The signed state carries the Discord user ID through the round trip.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Start EVE SSO login",
                "parameters": [
                    {"type": "string", "description": "Discord user ID to link", "name": "discord_id", "in": "query", "required": true}
                ],
                "responses": {
                    "302": {"description": "redirect to EVE SSO"},
                    "400": {"description": "error.code: bad_request", "schema": {"$ref": "#/definitions/http.APIResponse"}},
                    "500": {"description": "error.code: internal_error", "schema": {"$ref": "#/definitions/http.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "http.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {"$ref": "#/definitions/http.APIError"}
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
	Title:            "evecorpbot auth server",
	Description:      "EVE SSO account linking for the corp Discord bot.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
