// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with `swag init -g cmd/app/main.go`.
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
        "/auth/nonce": {
            "post": {
                "tags": ["auth"],
                "summary": "Request a login challenge",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.NonceRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            }
        },
        "/auth/verify": {
            "post": {
                "tags": ["auth"],
                "summary": "Exchange a signed challenge for a token",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/models.VerifyRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/roles/admin": {
            "get": {"tags": ["roles"], "summary": "Current admin", "responses": {"200": {"description": "OK"}}}
        },
        "/roles/admin/transfer": {
            "post": {"security": [{"WalletToken": []}], "tags": ["roles"], "summary": "Transfer the admin role", "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/roles/creators": {
            "get": {"tags": ["roles"], "summary": "List campaign creators", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"WalletToken": []}], "tags": ["roles"], "summary": "Grant the campaign creator role", "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/roles/creators/{address}": {
            "delete": {"security": [{"WalletToken": []}], "tags": ["roles"], "summary": "Revoke the campaign creator role", "parameters": [{"type": "string", "name": "address", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}}}
        },
        "/roles/{role}/members/{address}": {
            "get": {"tags": ["roles"], "summary": "Check role membership", "parameters": [{"type": "string", "name": "role", "in": "path", "required": true}, {"type": "string", "name": "address", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/campaigns": {
            "get": {"tags": ["campaigns"], "summary": "List campaigns", "parameters": [{"type": "string", "name": "owner", "in": "query"}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"WalletToken": []}], "tags": ["campaigns"], "summary": "Create a campaign", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/campaigns/stats": {
            "get": {"tags": ["campaigns"], "summary": "Campaign totals", "responses": {"200": {"description": "OK"}}}
        },
        "/campaigns/{id}": {
            "get": {"tags": ["campaigns"], "summary": "Get a campaign", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "delete": {"security": [{"WalletToken": []}], "tags": ["campaigns"], "summary": "Delete a campaign", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}}}
        },
        "/campaigns/{id}/donations": {
            "get": {"tags": ["campaigns"], "summary": "Donation history", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"WalletToken": []}], "tags": ["campaigns"], "summary": "Donate to a campaign", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}, "409": {"description": "Conflict"}, "410": {"description": "Gone"}}}
        },
        "/campaigns/{id}/contributions/{address}": {
            "get": {"tags": ["campaigns"], "summary": "Donor contribution", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"type": "string", "name": "address", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/campaigns/{id}/withdraw": {
            "post": {"security": [{"WalletToken": []}], "tags": ["campaigns"], "summary": "Release escrow to the owner", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}, "502": {"description": "Bad Gateway"}}}
        },
        "/accounts/{address}/balance": {
            "get": {"tags": ["custody"], "summary": "Payout balance", "parameters": [{"type": "string", "name": "address", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}}
        },
        "/events/ws": {
            "get": {"tags": ["events"], "summary": "Subscribe to ledger events over a websocket", "responses": {"101": {"description": "Switching Protocols"}}}
        }
    },
    "definitions": {
        "models.NonceRequest": {
            "type": "object",
            "required": ["address"],
            "properties": {"address": {"type": "string"}}
        },
        "models.VerifyRequest": {
            "type": "object",
            "required": ["address", "nonce", "signature"],
            "properties": {"address": {"type": "string"}, "nonce": {"type": "string"}, "signature": {"type": "string"}}
        }
    },
    "securityDefinitions": {
        "WalletToken": {
            "description": "Bearer token from /auth/verify, sent as \"Bearer <token>\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Crowdfunding Ledger API",
	Description:      "Campaign ledger with escrowed donations and role based access control.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
