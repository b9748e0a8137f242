package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EBTA Enrollment API",
        "description": "Paid subject enrollment, status pages and QR attendance check-in",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Registration", "description": "Public enrollment submission and fee quotes"},
        {"name": "Status", "description": "Capability-token enrollment status pages"},
        {"name": "Attendance", "description": "QR check-in"},
        {"name": "Enrollments", "description": "Admin enrollment workflow"},
        {"name": "Sessions", "description": "Weekly sessions and QR generation"},
        {"name": "Settings", "description": "Global enrollment settings"},
        {"name": "Auth", "description": "Admin authentication"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {"200": {"description": "Ready"}}
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Registration"],
                "summary": "Subject catalog",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/fees/quote": {
            "get": {
                "tags": ["Registration"],
                "summary": "Fee quote for a grade and subject count",
                "parameters": [
                    {"name": "grade", "in": "query", "type": "string", "required": true},
                    {"name": "count", "in": "query", "type": "integer", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/register": {
            "post": {
                "tags": ["Registration"],
                "summary": "Submit a monthly enrollment",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "full_name", "in": "formData", "type": "string", "required": true},
                    {"name": "phone", "in": "formData", "type": "string", "required": true},
                    {"name": "guardian_name", "in": "formData", "type": "string", "required": true},
                    {"name": "guardian_phone", "in": "formData", "type": "string", "required": true},
                    {"name": "email", "in": "formData", "type": "string"},
                    {"name": "province", "in": "formData", "type": "string", "required": true},
                    {"name": "school", "in": "formData", "type": "string", "required": true},
                    {"name": "subject_ids", "in": "formData", "type": "string", "required": true},
                    {"name": "pin", "in": "formData", "type": "string", "required": true},
                    {"name": "amount_paid", "in": "formData", "type": "integer", "required": true},
                    {"name": "registration_paid", "in": "formData", "type": "boolean"},
                    {"name": "proof_of_payment", "in": "formData", "type": "file", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "200": {"description": "No change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "402": {"description": "Amount mismatch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/status/{id}": {
            "get": {
                "tags": ["Status"],
                "summary": "Enrollment status page",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "token", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Invalid token"},
                    "404": {"description": "Unknown enrollment"}
                }
            }
        },
        "/attend": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Session context for a check-in code",
                "parameters": [
                    {"name": "code", "in": "query", "type": "string", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Attendance"],
                "summary": "Record attendance",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CheckInRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "No active enrollment"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Admin login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollments",
                "parameters": [
                    {"name": "month", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "grade", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/enrollments/export": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Export enrollments as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string"},
                    {"name": "month", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "File"}}
            }
        },
        "/admin/enrollments/{id}/approve": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Approve an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/enrollments/{id}/lapse": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Lapse an enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/registrations": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List annual registrations",
                "parameters": [
                    {"name": "year", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List active sessions",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/sessions/{id}/qr": {
            "get": {
                "tags": ["Sessions"],
                "summary": "Today's check-in QR for a session",
                "produces": ["image/png"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {"200": {"description": "PNG image"}}
            }
        },
        "/admin/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Attendance for a session and date",
                "parameters": [
                    {"name": "sessionId", "in": "query", "type": "string", "required": true},
                    {"name": "date", "in": "query", "type": "string"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/admin/settings": {
            "get": {
                "tags": ["Settings"],
                "summary": "Current settings",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Settings"],
                "summary": "Update settings",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateSettingsRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/metrics": {
            "get": {
                "summary": "Prometheus metrics",
                "responses": {"200": {"description": "Exposition payload"}}
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "CheckInRequest": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "phone": {"type": "string"}
            },
            "required": ["code", "phone"]
        },
        "UpdateSettingsRequest": {
            "type": "object",
            "properties": {
                "current_month": {"type": "string"},
                "enrollment_open": {"type": "string"},
                "enrollment_message": {"type": "string"}
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
