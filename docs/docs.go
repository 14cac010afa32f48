// Package docs holds the OpenAPI description served at /api/swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "properties": {"token": {"type": "string"}, "user": {"$ref": "#/definitions/models.User"}}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/access.Actor"}}
                }
            }
        },
        "/charter-types": {
            "get": {
                "produces": ["application/json"],
                "tags": ["charters"],
                "summary": "List charter types",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.CharterType"}}}
                }
            }
        },
        "/leagues": {
            "get": {
                "produces": ["application/json"],
                "tags": ["leagues"],
                "summary": "List leagues",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.League"}}}
                }
            }
        },
        "/leagues/{league}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["leagues"],
                "summary": "League charter overview",
                "description": "Current, upcoming, draft, pending and historical charters of a league.",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "integer", "description": "Restrict to one charter type", "name": "charter_type_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.LeagueCharters"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/leagues/{league}/charters": {
            "get": {
                "produces": ["application/json"],
                "tags": ["leagues"],
                "summary": "League charter overview",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "integer", "description": "Restrict to one charter type", "name": "charter_type_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.LeagueCharters"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["charters"],
                "summary": "Create charter",
                "description": "Upload a roster file and store it as a draft charter.",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "integer", "description": "Charter type", "name": "charter_type_id", "in": "formData", "required": true},
                    {"type": "string", "description": "Charter name, defaults to today's date", "name": "name", "in": "formData"},
                    {"type": "file", "description": "Roster file (csv, txt or xlsx)", "name": "csv", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/service.Result"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/leagues/{league}/charters/{charter}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["charters"],
                "summary": "Show charter",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "string", "description": "Charter slug", "name": "charter", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.CharterView"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["charters"],
                "summary": "Update charter",
                "description": "Rename or retype a charter and replace its roster.",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "string", "description": "Charter slug", "name": "charter", "in": "path", "required": true},
                    {"type": "integer", "description": "Charter type", "name": "charter_type_id", "in": "formData", "required": true},
                    {"type": "string", "description": "Charter name", "name": "name", "in": "formData"},
                    {"type": "file", "description": "Roster file", "name": "csv", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Result"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["charters"],
                "summary": "Delete charter",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "string", "description": "Charter slug", "name": "charter", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Result"}}
                }
            }
        },
        "/leagues/{league}/charters/{charter}/edit": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["charters"],
                "summary": "Edit charter",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "string", "description": "Charter slug", "name": "charter", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.CharterView"}}
                }
            }
        },
        "/leagues/{league}/charters/{charter}/request-approval": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["charters"],
                "summary": "Request approval",
                "description": "Submit a draft charter for review by an operator.",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "string", "description": "Charter slug", "name": "charter", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Result"}}
                }
            }
        },
        "/leagues/{league}/charters/{charter}/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["charters"],
                "summary": "Approve charter",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "string", "description": "Charter slug", "name": "charter", "in": "path", "required": true},
                    {"description": "name and active_from", "name": "body", "in": "body", "schema": {"type": "object", "properties": {"name": {"type": "string"}, "active_from": {"type": "string", "example": "2026-03-01"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Result"}}
                }
            }
        },
        "/leagues/{league}/charters/{charter}/reject": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["charters"],
                "summary": "Reject charter",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"type": "string", "description": "Charter slug", "name": "charter", "in": "path", "required": true},
                    {"description": "name", "name": "body", "in": "body", "schema": {"type": "object", "properties": {"name": {"type": "string"}, "active_from": {"type": "string", "example": "2026-03-01"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Result"}},
                    "422": {"description": "Another draft of the type exists", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/leagues": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create league",
                "description": "Create a league and optionally assign its owner. A user owns at most one league.",
                "parameters": [
                    {"description": "League", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.LeagueInput"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/models.League"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/models.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/models.ErrorResponse"}}
                }
            }
        },
        "/admin/leagues/{league}": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Update league",
                "description": "Rename a league or change its owner. A null user_id removes the owner.",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true},
                    {"description": "League", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/service.LeagueInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.League"}}
                }
            }
        },
        "/admin/leagues/owner-candidates": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Owner candidates for a new league",
                "description": "Users that own no league.",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admin/feature-flags": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Feature flags",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admin/leagues/{league}/owner-candidates": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "League owner candidates",
                "parameters": [
                    {"type": "string", "description": "League slug", "name": "league", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/admin/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List users with roles and leagues",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.User"}}}
                }
            }
        },
        "/admin/roles/grant": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["admin"],
                "summary": "Grant role",
                "parameters": [
                    {"description": "Role", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.RoleRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/admin/roles/revoke": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["admin"],
                "summary": "Revoke role",
                "parameters": [
                    {"description": "Role", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.RoleRequest"}}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "access.Actor": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "email": {"type": "string"},
                "name": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "string"}}
            }
        },
        "models.CharterType": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"}
            }
        },
        "models.Skater": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "charter_id": {"type": "integer"},
                "name": {"type": "string"},
                "number": {"type": "string"}
            }
        },
        "models.Charter": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "league_id": {"type": "integer"},
                "charter_type_id": {"type": "integer"},
                "charter_type": {"$ref": "#/definitions/models.CharterType"},
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "approval_requested_at": {"type": "string", "format": "date-time"},
                "approved_at": {"type": "string", "format": "date-time"},
                "active_from": {"type": "string", "format": "date-time"},
                "skaters": {"type": "array", "items": {"$ref": "#/definitions/models.Skater"}},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "models.League": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "user": {"$ref": "#/definitions/models.User"},
                "slug": {"type": "string"},
                "name": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"}
            }
        },
        "models.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "object", "properties": {"id": {"type": "integer"}, "name": {"type": "string"}}}},
                "league": {"$ref": "#/definitions/models.League"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "code": {"type": "string"},
                "details": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "server.LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "server.RoleRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["root", "operator", "staff"]}
            }
        },
        "service.Result": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "redirect": {"type": "string"}
            }
        },
        "service.CharterView": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "redirect": {"type": "string"},
                "league": {"$ref": "#/definitions/models.League"},
                "charter": {"$ref": "#/definitions/models.Charter"},
                "state": {"type": "string", "enum": ["draft", "pending", "upcoming", "current", "historical", "deleted"]},
                "charter_types": {"type": "array", "items": {"$ref": "#/definitions/models.CharterType"}}
            }
        },
        "service.LeagueCharters": {
            "type": "object",
            "properties": {
                "league": {"$ref": "#/definitions/models.League"},
                "charter_type_id": {"type": "integer"},
                "current": {"$ref": "#/definitions/models.Charter"},
                "upcoming": {"$ref": "#/definitions/models.Charter"},
                "draft": {"$ref": "#/definitions/models.Charter"},
                "pending": {"$ref": "#/definitions/models.Charter"},
                "historical": {"type": "array", "items": {"$ref": "#/definitions/models.Charter"}},
                "approved": {"type": "array", "items": {"$ref": "#/definitions/models.Charter"}}
            }
        },
        "service.LeagueInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "slug": {"type": "string"},
                "user_id": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
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
	BasePath:         "/api",
	Schemes:          []string{"http", "https"},
	Title:            "Muster Charter API",
	Description:      "League charter administration: roster uploads, approval workflow and charter history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
