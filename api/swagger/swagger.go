package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "CineClub API",
        "description": "Private film club: weekly rotation, suggestions, discussion and realtime channels",
        "version": "1.0.0"
    },
    "basePath": "/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Auth", "description": "Member authentication"},
        {"name": "Films", "description": "Weekly film schedule and rotation"},
        {"name": "Suggestions", "description": "Member suggestion ledger"},
        {"name": "Interactions", "description": "Watch status and ratings"},
        {"name": "Discussion", "description": "Per-film threaded discussion"},
        {"name": "Invites", "description": "Membership invites"},
        {"name": "Realtime", "description": "Per-film event channels"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a member",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current member profile",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/films": {
            "get": {
                "tags": ["Films"],
                "summary": "List films",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["UPCOMING", "CURRENT", "ARCHIVED"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Films"],
                "summary": "Schedule a film for a future week (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleFilmRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Week already taken"}
                }
            }
        },
        "/films/current": {
            "get": {
                "tags": ["Films"],
                "summary": "Get the current week's film",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No current film"}
                }
            }
        },
        "/films/close-week": {
            "post": {
                "tags": ["Films"],
                "summary": "Close a week, archiving its film and promoting the next (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "week", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "500": {"description": "Partial rotation, retry"}
                }
            }
        },
        "/films/{id}": {
            "get": {
                "tags": ["Films"],
                "summary": "Get film detail",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/films/{id}/recap": {
            "get": {
                "tags": ["Films"],
                "summary": "Export an archived film's recap",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Recap file"}
                }
            }
        },
        "/films/{id}/recap/link": {
            "post": {
                "tags": ["Films"],
                "summary": "Create a shareable download link for an archived film's recap",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "201": {"description": "Signed link"},
                    "503": {"description": "Sharing not configured"}
                }
            }
        },
        "/recaps/download": {
            "get": {
                "tags": ["Films"],
                "summary": "Download a shared recap by its signed token",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Recap file"},
                    "404": {"description": "Invalid or expired link"}
                }
            }
        },
        "/films/{id}/watch-status": {
            "get": {
                "tags": ["Interactions"],
                "summary": "Get the caller's watch status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "put": {
                "tags": ["Interactions"],
                "summary": "Set the caller's watch status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetWatchStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/films/{id}/rating": {
            "put": {
                "tags": ["Interactions"],
                "summary": "Rate a film",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RateFilmRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/films/{id}/ratings": {
            "get": {
                "tags": ["Interactions"],
                "summary": "List a film's ratings with the aggregate",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/films/{id}/discussion": {
            "get": {
                "tags": ["Discussion"],
                "summary": "Get a film's threaded discussion",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Discussion"],
                "summary": "Post a comment or reaction",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PostDiscussionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/discussion/{id}": {
            "delete": {
                "tags": ["Discussion"],
                "summary": "Delete a discussion item and its subtree",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "Removed ids"},
                    "403": {"description": "Not the author or an admin"}
                }
            }
        },
        "/discussion/{id}/highlight": {
            "put": {
                "tags": ["Discussion"],
                "summary": "Flag or unflag a comment for the weekly recap (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SetHighlightRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/films/{id}/channel": {
            "get": {
                "tags": ["Realtime"],
                "summary": "Subscribe to a film's realtime event channel (websocket)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true},
                    {"name": "token", "in": "query", "type": "string"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        },
        "/films/{id}/presence": {
            "get": {
                "tags": ["Realtime"],
                "summary": "List members currently subscribed to a film's channel",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/suggestions": {
            "get": {
                "tags": ["Suggestions"],
                "summary": "List suggestions",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "status", "in": "query", "type": "string", "enum": ["PENDING", "ACCEPTED", "REJECTED"]},
                    {"name": "week", "in": "query", "type": "string"},
                    {"name": "mine", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Suggestions"],
                "summary": "Submit a film suggestion",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitSuggestionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "429": {"description": "Already suggested for that week"}
                }
            }
        },
        "/suggestions/{id}/accept": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Accept a suggestion (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Already triaged"}
                }
            }
        },
        "/suggestions/{id}/reject": {
            "post": {
                "tags": ["Suggestions"],
                "summary": "Reject a suggestion (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Already triaged"}
                }
            }
        },
        "/invites": {
            "get": {
                "tags": ["Invites"],
                "summary": "List pending invites (admin)",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Invites"],
                "summary": "Issue a membership invite (admin)",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInviteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/invites/redeem": {
            "post": {
                "tags": ["Invites"],
                "summary": "Redeem an invite code for a member account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RedeemInviteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Account created"},
                    "409": {"description": "Code expired or already redeemed"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ScheduleFilmRequest": {
            "type": "object",
            "required": ["external_ref", "title", "week_start"],
            "properties": {
                "external_ref": {"type": "string"},
                "title": {"type": "string"},
                "week_start": {"type": "string", "format": "date-time"}
            }
        },
        "SubmitSuggestionRequest": {
            "type": "object",
            "required": ["external_ref", "title", "pitch"],
            "properties": {
                "external_ref": {"type": "string"},
                "title": {"type": "string"},
                "pitch": {"type": "string"}
            }
        },
        "SetWatchStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["NOT_STARTED", "WATCHING", "WATCHED"]}
            }
        },
        "RateFilmRequest": {
            "type": "object",
            "required": ["score"],
            "properties": {
                "score": {"type": "integer", "minimum": 1, "maximum": 10},
                "review": {"type": "string"}
            }
        },
        "PostDiscussionRequest": {
            "type": "object",
            "required": ["kind", "body"],
            "properties": {
                "kind": {"type": "string", "enum": ["COMMENT", "REACTION"]},
                "body": {"type": "string"},
                "parent_id": {"type": "string"}
            }
        },
        "SetHighlightRequest": {
            "type": "object",
            "properties": {
                "highlighted": {"type": "boolean"}
            }
        },
        "CreateInviteRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string"}
            }
        },
        "RedeemInviteRequest": {
            "type": "object",
            "required": ["code", "email", "password", "full_name"],
            "properties": {
                "code": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "full_name": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
