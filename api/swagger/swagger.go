package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Care Billing API",
        "description": "Attendance register, monthly invoicing and staff payroll reconciliation for day-care clients",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Attendance", "description": "Per-client daily attendance register"},
        {"name": "Billing", "description": "Monthly invoice generation and lifecycle"},
        {"name": "Staff", "description": "Staff check-in and payroll reconciliation"}
    ],
    "paths": {
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List attendance in a date range",
                "parameters": [
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "clientId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["present", "late-cancellation", "absent"]},
                    {"name": "paymentType", "in": "query", "type": "string", "enum": ["cash", "invoice"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid range", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/{clientId}/{date}": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Get attendance for a client on a day",
                "parameters": [
                    {"name": "clientId", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Attendance"],
                "summary": "Record attendance for a client on a day",
                "description": "Omitted fields keep their stored value; null clears a field",
                "parameters": [
                    {"name": "clientId", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AttendancePatch"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid patch", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown client", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/{clientId}/{date}/settle-cash": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Mark outstanding cash for a session as paid",
                "parameters": [
                    {"name": "clientId", "in": "path", "required": true, "type": "string"},
                    {"name": "date", "in": "path", "required": true, "type": "string", "format": "date"},
                    {"name": "payload", "in": "body", "schema": {"type": "object", "properties": {"paidDate": {"type": "string", "format": "date"}}}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/billing/invoices": {
            "get": {
                "tags": ["Billing"],
                "summary": "List invoices of a month",
                "parameters": [
                    {"name": "period", "in": "query", "required": true, "type": "string", "description": "YYYY-MM"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/billing/invoices/generate": {
            "post": {
                "tags": ["Billing"],
                "summary": "Generate monthly invoices",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateInvoicesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Generation result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid period", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Generation already running", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/billing/invoices/{clientId}/{period}": {
            "get": {
                "tags": ["Billing"],
                "summary": "Get a client's invoice for a month",
                "parameters": [
                    {"name": "clientId", "in": "path", "required": true, "type": "string"},
                    {"name": "period", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/billing/invoices/{clientId}/{period}/status": {
            "patch": {
                "tags": ["Billing"],
                "summary": "Move an invoice along its lifecycle",
                "parameters": [
                    {"name": "clientId", "in": "path", "required": true, "type": "string"},
                    {"name": "period", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateInvoiceStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Illegal transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/billing/invoices/{clientId}/{period}/pdf": {
            "get": {
                "tags": ["Billing"],
                "summary": "Download an invoice as PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "clientId", "in": "path", "required": true, "type": "string"},
                    {"name": "period", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF document", "schema": {"type": "file"}}
                }
            }
        },
        "/staff/{staffId}/check-in": {
            "post": {
                "tags": ["Staff"],
                "summary": "Record a worked day for a staff member",
                "parameters": [
                    {"name": "staffId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "schema": {"type": "object", "properties": {"date": {"type": "string", "format": "date"}}}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already checked in", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/staff/reconciliation": {
            "get": {
                "tags": ["Staff"],
                "summary": "Staff payroll reconciliation for a month",
                "produces": ["application/json", "text/csv", "application/pdf"],
                "parameters": [
                    {"name": "period", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["json", "csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        }
    },
    "definitions": {
        "AttendancePatch": {
            "type": "object",
            "properties": {
                "attendanceStatus": {"type": "string", "enum": ["present", "late-cancellation", "absent"]},
                "attended": {"type": "boolean", "description": "Legacy flag, read only when attendanceStatus is omitted"},
                "payment": {"type": "string"},
                "paymentType": {"type": "string", "enum": ["cash", "invoice"]},
                "invoiceCode": {"type": "string"},
                "cashOwed": {"type": "string"}
            }
        },
        "GenerateInvoicesRequest": {
            "type": "object",
            "required": ["year", "month"],
            "properties": {
                "year": {"type": "integer"},
                "month": {"type": "integer", "minimum": 1, "maximum": 12},
                "regenerate": {"type": "boolean"}
            }
        },
        "UpdateInvoiceStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["draft", "sent", "paid", "overdue", "cancelled"]},
                "paidDate": {"type": "string", "format": "date"}
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
