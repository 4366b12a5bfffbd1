package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "FixTrack API",
        "description": "Property maintenance workflow service",
        "version": "1.0.0"
    },
    "basePath": "/api",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Session issuance"},
        {"name": "Maintenance", "description": "Maintenance request workflow"},
        {"name": "Notifications", "description": "In-app notification feed"},
        {"name": "Dashboard", "description": "Aggregate projections"},
        {"name": "Contractors", "description": "Contractor directory"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive an access token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Auth"],
                "summary": "Current session identity",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/requests": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "List requests visible to the caller",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Maintenance"],
                "summary": "Create a maintenance request (renter)",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failed"}
                }
            }
        },
        "/requests/export": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Export visible requests as CSV (broker, owner)",
                "produces": ["text/csv"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/requests/{id}": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Request detail with schedule and workflow history",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            }
        },
        "/requests/{id}/notify-owner": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Advance pending request to notified_owner (broker)",
                "responses": {
                    "200": {"description": "OK"},
                    "403": {"description": "Permission denied"},
                    "409": {"description": "Invalid state transition"}
                }
            }
        },
        "/requests/{id}/select-contractor": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Select a contractor (owner session)",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid state transition"}}
            }
        },
        "/requests/{id}/schedule": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Schedule the appointment (assigned contractor)",
                "responses": {"200": {"description": "OK"}, "409": {"description": "Invalid state transition"}}
            }
        },
        "/requests/{id}/start": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Mark work as started",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/requests/{id}/complete": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Mark work as completed",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/requests/{id}/work-order": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Download the work order PDF",
                "produces": ["application/pdf"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/actions/select-contractor/{token}": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Token-gated contractor selection view",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid token"}}
            },
            "post": {
                "tags": ["Maintenance"],
                "summary": "Redeem a select_contractor token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid token"}}
            }
        },
        "/actions/schedule-appointment/{token}": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Token-gated scheduling view",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid token"}}
            },
            "post": {
                "tags": ["Maintenance"],
                "summary": "Redeem a schedule_appointment token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid token"}}
            }
        },
        "/contractors": {
            "get": {
                "tags": ["Contractors"],
                "summary": "List contractor directory entries",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/properties": {
            "get": {
                "tags": ["Maintenance"],
                "summary": "Properties the caller rents",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/notifications": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Notification feed, newest first",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/notifications/unread-count": {
            "get": {
                "tags": ["Notifications"],
                "summary": "Unread notification count",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/notifications/{id}/read": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark one notification read",
                "responses": {"204": {"description": "No content"}}
            }
        },
        "/notifications/read-all": {
            "post": {
                "tags": ["Notifications"],
                "summary": "Mark all notifications read",
                "responses": {"204": {"description": "No content"}}
            }
        },
        "/dashboard": {
            "get": {
                "tags": ["Dashboard"],
                "summary": "Request counts by lifecycle bucket",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
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
