// Package docs registers the OpenAPI document served under /swagger/.
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
        "/timeline/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["timeline"],
                "summary": "Current election timeline status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/timeline.StatusResponse"}}
                }
            }
        },
        "/timeline/stages": {
            "get": {
                "produces": ["application/json"],
                "tags": ["timeline"],
                "summary": "List configured stages",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/timeline.ListStagesResponse"}}
                }
            },
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["timeline"],
                "summary": "Create or update a stage",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/timeline.UpsertStageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/timeline.StageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/timeline/stages/{stage_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["timeline"],
                "summary": "Get one stage",
                "parameters": [
                    {"type": "integer", "name": "stage_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/timeline.StageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["timeline"],
                "summary": "Delete a stage",
                "parameters": [
                    {"type": "integer", "name": "stage_id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/timeline/eligibility/{action}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["timeline"],
                "summary": "Check whether an action is allowed now",
                "parameters": [
                    {"type": "string", "enum": ["register", "apply", "vote", "view_results"], "name": "action", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/timeline.EligibilityResponse"}}
                }
            }
        },
        "/votes": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["balloting"],
                "summary": "Cast a ballot",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/balloting.SubmitVoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/balloting.SubmitVoteResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/votes/recover": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["balloting"],
                "summary": "Re-submit the ballot of a voter whose claim has no ballot",
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/balloting.SubmitVoteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/balloting.SubmitVoteResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/results": {
            "get": {
                "produces": ["application/json"],
                "tags": ["balloting"],
                "summary": "Published election results",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/balloting.ResultsResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/admin/reconciliation": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List reconciliation queue items",
                "parameters": [
                    {"type": "string", "enum": ["pending", "in_progress", "resolved"], "name": "status", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/balloting.ListReconciliationResponse"}}
                }
            }
        },
        "/admin/reconciliation/{item_id}/resolve": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Resolve a pending reconciliation item by hand",
                "parameters": [
                    {"type": "string", "name": "item_id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/balloting.ResolveReconciliationRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/balloting.ReconciliationItemResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/admin/tallies/reconcile": {
            "post": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Rewrite cached vote counts from vote rows",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/balloting.ReconcileTalliesResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "timeline.StageResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "stage_name": {"type": "string"},
                "category": {"type": "string"},
                "start_time": {"type": "string", "format": "date-time"},
                "end_time": {"type": "string", "format": "date-time"},
                "is_active": {"type": "boolean"}
            }
        },
        "timeline.UpsertStageRequest": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "stage_name": {"type": "string"},
                "category": {"type": "string", "enum": ["registration", "application", "voting", "results", "other"]},
                "start_time": {"type": "string", "format": "date-time"},
                "end_time": {"type": "string", "format": "date-time"},
                "is_active": {"type": "boolean"}
            }
        },
        "timeline.ListStagesResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/timeline.StageResponse"}}
            }
        },
        "timeline.StatusResponse": {
            "type": "object",
            "properties": {
                "current_stage": {"$ref": "#/definitions/timeline.StageResponse"},
                "is_voting_active": {"type": "boolean"},
                "is_voting_ended": {"type": "boolean"},
                "is_results_published": {"type": "boolean"},
                "voting_start_time": {"type": "string", "format": "date-time"},
                "voting_end_time": {"type": "string", "format": "date-time"},
                "results_publish_time": {"type": "string", "format": "date-time"},
                "evaluated_at": {"type": "string", "format": "date-time"}
            }
        },
        "timeline.EligibilityResponse": {
            "type": "object",
            "properties": {
                "action": {"type": "string"},
                "allowed": {"type": "boolean"},
                "reason": {"type": "string"}
            }
        },
        "balloting.SubmitVoteRequest": {
            "type": "object",
            "properties": {
                "voterId": {"type": "string"},
                "selections": {
                    "type": "object",
                    "additionalProperties": {"type": "array", "items": {"type": "string"}}
                }
            }
        },
        "balloting.SubmitVoteResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"}
            }
        },
        "balloting.CandidateResult": {
            "type": "object",
            "properties": {
                "candidate_id": {"type": "string"},
                "full_name": {"type": "string"},
                "vote_count": {"type": "integer"},
                "percentage": {"type": "number"}
            }
        },
        "balloting.PositionResult": {
            "type": "object",
            "properties": {
                "position": {"type": "string"},
                "total_votes": {"type": "integer"},
                "candidates": {"type": "array", "items": {"$ref": "#/definitions/balloting.CandidateResult"}},
                "winner": {"$ref": "#/definitions/balloting.CandidateResult"},
                "is_draw": {"type": "boolean"},
                "withheld": {"type": "boolean"}
            }
        },
        "balloting.ResultsResponse": {
            "type": "object",
            "properties": {
                "positions": {"type": "array", "items": {"$ref": "#/definitions/balloting.PositionResult"}},
                "verified_voters": {"type": "integer"},
                "voted_voters": {"type": "integer"},
                "turnout": {"type": "number"},
                "voting_ended": {"type": "boolean"}
            }
        },
        "balloting.ReconciliationItemResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "voter_id": {"type": "string"},
                "reason": {"type": "string"},
                "status": {"type": "string"},
                "resolution": {"type": "string"},
                "resolved_by": {"type": "string"},
                "note": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "updated_at": {"type": "string", "format": "date-time"},
                "resolved_at": {"type": "string", "format": "date-time"}
            }
        },
        "balloting.ListReconciliationResponse": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/balloting.ReconciliationItemResponse"}}
            }
        },
        "balloting.ResolveReconciliationRequest": {
            "type": "object",
            "properties": {
                "actor_id": {"type": "string"},
                "note": {"type": "string"}
            }
        },
        "balloting.ReconcileTalliesResponse": {
            "type": "object",
            "properties": {
                "corrections": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "candidate_id": {"type": "string"},
                            "cached": {"type": "integer"},
                            "actual": {"type": "integer"}
                        }
                    }
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "agora election API",
	Description:      "Election timeline, anonymous ballot casting and result aggregation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
