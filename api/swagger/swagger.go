package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Proxy API",
        "description": "Substitute teacher recommendation and assignment registry",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http",
        "https"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [
        {"BearerAuth": []}
    ],
    "tags": [
        {"name": "Proxies", "description": "Substitute recommendation and assignment"},
        {"name": "Absences", "description": "Recorded teacher absences"}
    ],
    "paths": {
        "/proxies/day-slot": {
            "get": {
                "tags": ["Proxies"],
                "summary": "Resolve the timetable day for a date",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Non-teaching day", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/proxies/available": {
            "get": {
                "tags": ["Proxies"],
                "summary": "List teachers free to cover a period, least loaded first",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "periodId", "in": "query", "type": "string", "required": true},
                    {"name": "excludeTeacherId", "in": "query", "type": "string"},
                    {"name": "exclude", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "csv"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/AvailableTeacherList"}}
                }
            }
        },
        "/proxies/absences/{teacherId}/periods": {
            "get": {
                "tags": ["Proxies"],
                "summary": "List the periods an absent teacher would have taught",
                "parameters": [
                    {"name": "teacherId", "in": "path", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Teacher not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/proxies/recommendations": {
            "get": {
                "tags": ["Proxies"],
                "summary": "Ranked substitutes for every period of an absent teacher",
                "parameters": [
                    {"name": "teacherId", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "exclude", "in": "query", "type": "array", "items": {"type": "string"}, "collectionFormat": "csv"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/proxies/commit": {
            "post": {
                "tags": ["Proxies"],
                "summary": "Commit a batch of substitutions for one absent teacher",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommitProxiesRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid batch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Substitute unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Storage unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/proxies": {
            "get": {
                "tags": ["Proxies"],
                "summary": "List committed substitutions for a date",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "absentTeacherId", "in": "query", "type": "string"},
                    {"name": "periodId", "in": "query", "type": "string"},
                    {"name": "substituteTeacherId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/proxies/{id}": {
            "delete": {
                "tags": ["Proxies"],
                "summary": "Delete a committed substitution",
                "parameters": [
                    {"name": "id", "in": "path", "type": "string", "required": true}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/proxies/register": {
            "get": {
                "tags": ["Proxies"],
                "summary": "Download the daily proxy register",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Register file", "schema": {"type": "file"}}
                }
            }
        },
        "/absences": {
            "get": {
                "tags": ["Absences"],
                "summary": "List absences recorded for a date",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "AvailableTeacher": {
            "type": "object",
            "properties": {
                "teacherId": {"type": "string"},
                "name": {"type": "string"},
                "currentLoad": {"type": "integer"}
            }
        },
        "AvailableTeacherList": {
            "type": "object",
            "properties": {
                "data": {"type": "array", "items": {"$ref": "#/definitions/AvailableTeacher"}}
            }
        },
        "ProxyChoice": {
            "type": "object",
            "properties": {
                "periodId": {"type": "string"},
                "classId": {"type": "string"},
                "subjectId": {"type": "string"},
                "substituteTeacherId": {"type": "string"},
                "remarks": {"type": "string"}
            },
            "required": ["periodId", "classId", "subjectId", "substituteTeacherId"]
        },
        "CommitProxiesRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "absentTeacherId": {"type": "string"},
                "status": {"type": "string", "enum": ["ABSENT", "BUSY", "HALF_DAY"]},
                "reason": {"type": "string"},
                "choices": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/ProxyChoice"}
                }
            },
            "required": ["date", "absentTeacherId", "status", "choices"]
        },
        "ProxyConflict": {
            "type": "object",
            "properties": {
                "choice_index": {"type": "integer"},
                "date": {"type": "string"},
                "period_id": {"type": "string"},
                "class_id": {"type": "string"},
                "substitute_teacher_id": {"type": "string"},
                "conflicting_class_id": {"type": "string"},
                "reason": {"type": "string", "enum": ["REGULAR_CLASS", "ALREADY_SUBSTITUTING", "CLASS_ALREADY_COVERED", "SUBSTITUTE_ABSENT"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"$ref": "#/definitions/ProxyConflict"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
