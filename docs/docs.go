// Package docs registers the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in by email, creating the account on first use",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/loginRequest"}}],
                "responses": {"200": {"description": "token and user"}, "400": {"description": "invalid input"}}
            }
        },
        "/me": {
            "get": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Current user", "responses": {"200": {"description": "user"}}},
            "patch": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Edit name, title, bio or avatar", "responses": {"200": {"description": "user"}, "400": {"description": "invalid input"}}}
        },
        "/me/preferences": {
            "get": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Preferences object", "responses": {"200": {"description": "preferences"}}},
            "put": {"tags": ["users"], "security": [{"BearerAuth": []}], "summary": "Shallow merge into preferences", "responses": {"200": {"description": "merged preferences"}}}
        },
        "/onboarding": {
            "get": {"tags": ["onboarding"], "security": [{"BearerAuth": []}], "summary": "Current step and accumulated profile", "responses": {"200": {"description": "state"}}},
            "delete": {"tags": ["onboarding"], "security": [{"BearerAuth": []}], "summary": "Restart the funnel", "responses": {"204": {"description": "reset"}}}
        },
        "/onboarding/events": {
            "post": {
                "tags": ["onboarding"],
                "security": [{"BearerAuth": []}],
                "summary": "Submit the payload of the current step",
                "description": "Body is a JSON object tagged by type: start, photo, dob, quiz, traits or confirm.",
                "responses": {"200": {"description": "next state"}, "400": {"description": "invalid payload"}, "409": {"description": "wrong step or transition in progress"}}
            }
        },
        "/habits": {
            "get": {"tags": ["habits"], "security": [{"BearerAuth": []}], "summary": "Active habits, oldest first", "responses": {"200": {"description": "habits"}}},
            "post": {"tags": ["habits"], "security": [{"BearerAuth": []}], "summary": "Create a daily habit", "responses": {"201": {"description": "habit"}, "400": {"description": "invalid title"}}}
        },
        "/habits/sync": {
            "get": {
                "tags": ["habits"],
                "security": [{"BearerAuth": []}],
                "summary": "Habits changed after last_sync, deletions included",
                "parameters": [{"in": "query", "name": "last_sync", "type": "string", "format": "date-time"}],
                "responses": {"200": {"description": "changes and server timestamp"}}
            }
        },
        "/habits/{id}": {
            "put": {"tags": ["habits"], "security": [{"BearerAuth": []}], "summary": "Rename a habit", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "habit"}, "409": {"description": "version conflict"}}},
            "delete": {"tags": ["habits"], "security": [{"BearerAuth": []}], "summary": "Soft delete a habit", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"204": {"description": "deleted"}, "404": {"description": "not found"}}}
        },
        "/habits/{id}/toggle": {
            "post": {"tags": ["habits"], "security": [{"BearerAuth": []}], "summary": "Mark a habit done or not done for today", "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}], "responses": {"200": {"description": "habit"}, "404": {"description": "not found"}}}
        },
        "/memories": {
            "get": {"tags": ["memories"], "security": [{"BearerAuth": []}], "summary": "Memories, newest first", "responses": {"200": {"description": "memories"}}},
            "post": {"tags": ["memories"], "security": [{"BearerAuth": []}], "summary": "Record a memory", "responses": {"201": {"description": "memory"}}}
        },
        "/people": {
            "get": {"tags": ["people"], "security": [{"BearerAuth": []}], "summary": "People with memory counts", "responses": {"200": {"description": "people"}}},
            "post": {"tags": ["people"], "security": [{"BearerAuth": []}], "summary": "Add a person", "responses": {"201": {"description": "person"}}}
        },
        "/people/insight": {
            "get": {"tags": ["people"], "security": [{"BearerAuth": []}], "summary": "AI summary of the user's social circle", "responses": {"200": {"description": "insight"}}}
        },
        "/search": {
            "get": {"tags": ["search"], "security": [{"BearerAuth": []}], "summary": "Keyword search over memories and people", "parameters": [{"in": "query", "name": "q", "type": "string", "required": true}], "responses": {"200": {"description": "results"}}}
        }
    },
    "definitions": {
        "loginRequest": {
            "type": "object",
            "required": ["email", "name"],
            "properties": {"email": {"type": "string"}, "name": {"type": "string"}}
        }
    }
}`

var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "2moro API",
	Description:      "Life OS backend: onboarding, habits, memories and people.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
