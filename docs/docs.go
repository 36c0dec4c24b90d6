// Package docs registers the OpenAPI document served under /swagger/.
// Regenerate from the controller annotations with: swag init -g cmd/server/main.go
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
        "/auth/signup": {"post": {"tags": ["auth"], "summary": "Sign up a new user", "responses": {"201": {"description": "data contains the created user"}, "409": {"description": "error.code: conflict"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Log in", "responses": {"200": {"description": "data contains token, token_type, expires_at and user"}, "401": {"description": "error.code: unauthorized"}, "429": {"description": "error.code: too_many_requests"}}}},
        "/auth/admin/login": {"post": {"tags": ["auth"], "summary": "Log in to the moderation dashboard", "responses": {"200": {"description": "session"}, "403": {"description": "error.code: forbidden (not an admin)"}}}},
        "/auth/google/login": {"get": {"tags": ["auth"], "summary": "Start Google sign-in", "responses": {"302": {"description": "redirect to Google"}}}},
        "/auth/google/callback": {"get": {"tags": ["auth"], "summary": "Finish Google sign-in", "responses": {"200": {"description": "session"}}}},
        "/auth/logout": {"post": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Log out", "responses": {"200": {"description": "data.status: signed_out"}}}},
        "/events": {
            "get": {"tags": ["events"], "summary": "List public events", "responses": {"200": {"description": "data contains items and pagination"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Create an event", "responses": {"201": {"description": "data contains the created event"}, "413": {"description": "error.code: payload_too_large"}}}
        },
        "/events/{eventID}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Get an event", "responses": {"200": {"description": "data contains event, is_owner and can_flag"}, "404": {"description": "error.code: not_found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["events"], "summary": "Update an event", "responses": {"200": {"description": "data contains the updated event"}, "403": {"description": "error.code: forbidden"}}}
        },
        "/events/{eventID}/guests": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["guests"], "summary": "List guests", "responses": {"200": {"description": "data contains the guests"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["guests"], "summary": "Invite a guest", "responses": {"201": {"description": "data contains the new guest"}, "409": {"description": "error.code: conflict"}}}
        },
        "/events/{eventID}/guests/{guestID}": {"patch": {"security": [{"BearerAuth": []}], "tags": ["guests"], "summary": "Set a guest's RSVP", "responses": {"200": {"description": "data contains the updated guest"}}}},
        "/events/{eventID}/flags": {"post": {"security": [{"BearerAuth": []}], "tags": ["moderation"], "summary": "Flag an event", "responses": {"201": {"description": "data contains the pending flag"}, "409": {"description": "error.code: conflict"}}}},
        "/users/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Get current user", "responses": {"200": {"description": "data contains the user"}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Update current user", "responses": {"200": {"description": "data contains the updated user"}}}
        },
        "/users/me/events": {"get": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "List my events", "responses": {"200": {"description": "data contains the owned events"}}}},
        "/users/me/events/stream": {"get": {"security": [{"BearerAuth": []}], "produces": ["text/event-stream"], "tags": ["users"], "summary": "Stream my events", "responses": {"200": {"description": "stream of owned-event snapshots"}}}},
        "/admin/flagged-events": {"get": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "List flagged events", "responses": {"200": {"description": "data contains items and pagination"}, "403": {"description": "error.code: forbidden"}}}},
        "/admin/events/{eventID}/flags/{flagID}": {"patch": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Set a flag's status", "responses": {"200": {"description": "data contains the flag"}}}},
        "/admin/events/{eventID}": {"delete": {"security": [{"BearerAuth": []}], "tags": ["admin"], "summary": "Delete a flagged event", "responses": {"200": {"description": "data.status: deleted"}, "400": {"description": "error.code: bad_request (confirmation required)"}}}},
        "/healthz": {"get": {"tags": ["ops"], "summary": "Health check", "responses": {"200": {"description": "data.status: ok"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Event Planner API",
	Description:      "Events, guest lists and moderation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
