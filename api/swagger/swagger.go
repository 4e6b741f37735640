package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutor Billing API",
        "description": "Local API for the tutoring billing app with Google Drive sync.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {
            "name": "System",
            "description": "Health checks and metrics"
        },
        {
            "name": "Auth",
            "description": "Google Drive sign-in"
        },
        {
            "name": "Roster",
            "description": "Students and parents"
        },
        {
            "name": "Mirror",
            "description": "Local key-value mirror"
        },
        {
            "name": "Schedules",
            "description": "Monthly class sessions"
        },
        {
            "name": "Billing",
            "description": "Charges, reviews and bill exports"
        },
        {
            "name": "Sync",
            "description": "Drive save pipeline and conflicts"
        },
        {
            "name": "Data",
            "description": "Import, export and backups"
        }
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/ready": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Readiness check",
                "responses": {
                    "200": {
                        "description": "Ready"
                    }
                }
            }
        },
        "/metrics": {
            "get": {
                "tags": [
                    "System"
                ],
                "summary": "Prometheus metrics",
                "produces": [
                    "text/plain"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                }
            }
        },
        "/api/v1/auth/login": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "Start Google sign-in",
                "parameters": [
                    {
                        "name": "redirect",
                        "in": "query",
                        "type": "boolean",
                        "description": "false returns the consent URL as JSON"
                    }
                ],
                "responses": {
                    "302": {
                        "description": "Redirect to consent"
                    },
                    "200": {
                        "description": "Consent URL",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/auth/callback": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "OAuth redirect target",
                "parameters": [
                    {
                        "name": "code",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "state",
                        "in": "query",
                        "type": "string"
                    },
                    {
                        "name": "error",
                        "in": "query",
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Signed in",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Bad callback",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "401": {
                        "description": "Sign-in failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/auth/logout": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Sign out of Drive",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/auth/status": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "Credential and sync status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/bundle": {
            "get": {
                "tags": [
                    "Roster"
                ],
                "summary": "Current bundle",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/students": {
            "put": {
                "tags": [
                    "Roster"
                ],
                "summary": "Replace active students",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReplaceStudentsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/students/archived": {
            "put": {
                "tags": [
                    "Roster"
                ],
                "summary": "Replace archived students",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReplaceStudentsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/students/{id}/archive": {
            "post": {
                "tags": [
                    "Roster"
                ],
                "summary": "Archive a student",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ArchiveStudentRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown student",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/students/{id}/restore": {
            "post": {
                "tags": [
                    "Roster"
                ],
                "summary": "Restore an archived student",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown student",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/parents": {
            "put": {
                "tags": [
                    "Roster"
                ],
                "summary": "Replace parents",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ReplaceParentsRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Invalid",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/mirror": {
            "get": {
                "tags": [
                    "Mirror"
                ],
                "summary": "List mirror keys",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "Mirror"
                ],
                "summary": "Remove every mirror key",
                "parameters": [
                    {
                        "name": "confirm",
                        "in": "query",
                        "type": "boolean",
                        "required": true,
                        "description": "Must be true"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Cleared"
                    },
                    "428": {
                        "description": "Confirmation required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/mirror/{key}": {
            "get": {
                "tags": [
                    "Mirror"
                ],
                "summary": "Read a mirror value",
                "parameters": [
                    {
                        "name": "key",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Mirror key"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Stored value"
                    },
                    "404": {
                        "description": "Missing",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            },
            "put": {
                "tags": [
                    "Mirror"
                ],
                "summary": "Write a mirror value",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "name": "key",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Mirror key"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Stored"
                    }
                }
            }
        },
        "/api/v1/schedules/{month}": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Schedules of one month",
                "parameters": [
                    {
                        "name": "month",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Month (YYYY-MM)"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/schedules/{month}/generate": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Generate schedules from class days",
                "parameters": [
                    {
                        "name": "month",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Month (YYYY-MM)"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/GenerateScheduleRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/schedules/{month}/students/{studentId}/sessions/cancel": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Cancel a session",
                "parameters": [
                    {
                        "name": "month",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Month (YYYY-MM)"
                    },
                    {
                        "name": "studentId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CancelSessionRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/schedules/{month}/students/{studentId}/sessions/uncancel": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Restore a canceled session",
                "parameters": [
                    {
                        "name": "month",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Month (YYYY-MM)"
                    },
                    {
                        "name": "studentId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SessionDateRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/schedules/{month}/students/{studentId}/sessions/time": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Adjust the billed hours of a session",
                "parameters": [
                    {
                        "name": "month",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Month (YYYY-MM)"
                    },
                    {
                        "name": "studentId",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Student ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/TimeModifiedRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "Unknown session",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/schedules/days-off": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Cancel every session in a date range",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/DaysOffRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/billing/{month}/students/{id}": {
            "get": {
                "tags": [
                    "Billing"
                ],
                "summary": "Charge of one student for a month",
                "parameters": [
                    {
                        "name": "month",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Month (YYYY-MM)"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "tempModifier",
                        "in": "query",
                        "type": "number"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/billing/{month}/parents/{id}": {
            "get": {
                "tags": [
                    "Billing"
                ],
                "summary": "Monthly bill of a parent",
                "parameters": [
                    {
                        "name": "month",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Month (YYYY-MM)"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/billing/{month}/review": {
            "get": {
                "tags": [
                    "Billing"
                ],
                "summary": "Expected versus actual charges for a month",
                "parameters": [
                    {
                        "name": "month",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Month (YYYY-MM)"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/billing/review": {
            "get": {
                "tags": [
                    "Billing"
                ],
                "summary": "Expected versus actual charges over a month range",
                "parameters": [
                    {
                        "name": "from",
                        "in": "query",
                        "type": "string",
                        "required": true
                    },
                    {
                        "name": "to",
                        "in": "query",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/billing/{month}/parents/{id}/export": {
            "post": {
                "tags": [
                    "Billing"
                ],
                "summary": "Render a parent bill",
                "parameters": [
                    {
                        "name": "month",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "Month (YYYY-MM)"
                    },
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/ExportBillRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/exports/download": {
            "get": {
                "tags": [
                    "Billing"
                ],
                "summary": "Download a rendered bill",
                "produces": [
                    "application/octet-stream"
                ],
                "parameters": [
                    {
                        "name": "token",
                        "in": "query",
                        "type": "string",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File"
                    },
                    "404": {
                        "description": "Expired or missing",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/sync/status": {
            "get": {
                "tags": [
                    "Sync"
                ],
                "summary": "Current sync status",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/sync/ws": {
            "get": {
                "tags": [
                    "Sync"
                ],
                "summary": "Status stream (websocket)",
                "responses": {
                    "101": {
                        "description": "Switching protocols"
                    }
                }
            }
        },
        "/api/v1/sync/conflicts": {
            "get": {
                "tags": [
                    "Sync"
                ],
                "summary": "Conflicts awaiting an answer",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/sync/conflicts/{id}": {
            "post": {
                "tags": [
                    "Sync"
                ],
                "summary": "Answer a conflict",
                "parameters": [
                    {
                        "name": "id",
                        "in": "path",
                        "required": true,
                        "type": "string",
                        "description": "ID"
                    },
                    {
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConflictAnswerRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Answered"
                    },
                    "404": {
                        "description": "Unknown conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "428": {
                        "description": "Confirmation required",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/sync/save": {
            "post": {
                "tags": [
                    "Sync"
                ],
                "summary": "Save immediately",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/sync/reload": {
            "post": {
                "tags": [
                    "Sync"
                ],
                "summary": "Reload the Drive copy",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/import/bundle": {
            "post": {
                "tags": [
                    "Data"
                ],
                "summary": "Import a bundle file",
                "consumes": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Import failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/import/legacy": {
            "post": {
                "tags": [
                    "Data"
                ],
                "summary": "Import the three-file legacy export",
                "consumes": [
                    "multipart/form-data"
                ],
                "parameters": [
                    {
                        "name": "students",
                        "in": "formData",
                        "type": "file"
                    },
                    {
                        "name": "parents",
                        "in": "formData",
                        "type": "file"
                    },
                    {
                        "name": "schedules",
                        "in": "formData",
                        "type": "file"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Import failed",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/export/bundle": {
            "get": {
                "tags": [
                    "Data"
                ],
                "summary": "Download the current bundle",
                "responses": {
                    "200": {
                        "description": "Bundle file"
                    }
                }
            }
        },
        "/api/v1/backups": {
            "post": {
                "tags": [
                    "Data"
                ],
                "summary": "Queue a visible backup on Drive",
                "parameters": [
                    {
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/BackupRequest"
                        }
                    }
                ],
                "responses": {
                    "202": {
                        "description": "Queued",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "412": {
                        "description": "Not connected",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        },
        "/api/v1/backups/last": {
            "get": {
                "tags": [
                    "Data"
                ],
                "summary": "Most recent backup attempt",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "404": {
                        "description": "None yet",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "Student": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "classDays": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "sessionLength": {
                    "type": "number"
                },
                "hourlyRate": {
                    "type": "number"
                },
                "additionalChargeModifier": {
                    "type": "number"
                },
                "archivedSince": {
                    "type": "string"
                }
            }
        },
        "Parent": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "children": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "billModifierName": {
                    "type": "string"
                },
                "billModifierValue": {
                    "type": "number"
                }
            }
        },
        "Makeup": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "time": {
                    "type": "string"
                }
            }
        },
        "ReplaceStudentsRequest": {
            "type": "object",
            "properties": {
                "students": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Student"
                    }
                }
            }
        },
        "ReplaceParentsRequest": {
            "type": "object",
            "properties": {
                "parents": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/Parent"
                    }
                }
            }
        },
        "ArchiveStudentRequest": {
            "type": "object",
            "properties": {
                "since": {
                    "type": "string"
                },
                "keepDates": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "GenerateScheduleRequest": {
            "type": "object",
            "properties": {
                "studentIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                },
                "overwrite": {
                    "type": "boolean"
                }
            }
        },
        "CancelSessionRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "violation": {
                    "type": "boolean"
                },
                "makeup": {
                    "$ref": "#/definitions/Makeup"
                }
            }
        },
        "SessionDateRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                }
            }
        },
        "TimeModifiedRequest": {
            "type": "object",
            "properties": {
                "date": {
                    "type": "string"
                },
                "hours": {
                    "type": "number"
                }
            }
        },
        "DaysOffRequest": {
            "type": "object",
            "properties": {
                "from": {
                    "type": "string"
                },
                "to": {
                    "type": "string"
                },
                "studentIds": {
                    "type": "array",
                    "items": {
                        "type": "string"
                    }
                }
            }
        },
        "ExportBillRequest": {
            "type": "object",
            "properties": {
                "format": {
                    "type": "string",
                    "enum": [
                        "pdf",
                        "csv"
                    ]
                }
            }
        },
        "ConflictAnswerRequest": {
            "type": "object",
            "properties": {
                "choice": {
                    "type": "string",
                    "enum": [
                        "reload",
                        "overwrite",
                        "cancel"
                    ]
                },
                "confirmed": {
                    "type": "boolean"
                }
            }
        },
        "BackupRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "meta": {
                    "type": "object"
                }
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
