// Package docs is generated by swag init from the handler annotations. Regenerate rather than edit.
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
        "/balance": {
            "get": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "Get credit balance",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.BalanceResponse"}},
                    "401": {"description": "Missing or invalid device token"},
                    "503": {"description": "Storage unavailable"}
                }
            }
        },
        "/ledger": {
            "get": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["ledger"],
                "summary": "List ledger entries",
                "parameters": [
                    {"type": "integer", "default": 50, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.LedgerEntryResponse"}}}
                }
            }
        },
        "/translate": {
            "post": {
                "security": [{"DeviceToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["usage"],
                "summary": "Translate text",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TranslateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "402": {"description": "Insufficient balance"},
                    "502": {"description": "All providers failed"}
                }
            }
        },
        "/transcribe": {
            "post": {
                "security": [{"DeviceToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["usage"],
                "summary": "Transcribe audio segments",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.TranscribeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "402": {"description": "Insufficient balance"},
                    "502": {"description": "All providers failed"}
                }
            }
        },
        "/speech": {
            "post": {
                "security": [{"DeviceToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["usage"],
                "summary": "Synthesize speech",
                "parameters": [
                    {"type": "string", "name": "Idempotency-Key", "in": "header"},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.SpeechRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "402": {"description": "Insufficient balance"},
                    "502": {"description": "All providers failed"}
                }
            }
        },
        "/jobs": {
            "post": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Create a transcription job",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.CreateJobResponse"}},
                    "402": {"description": "Insufficient balance"}
                }
            }
        },
        "/jobs/{jobID}": {
            "get": {
                "security": [{"DeviceToken": []}],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get a job",
                "parameters": [{"type": "string", "name": "jobID", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.JobResponse"}},
                    "404": {"description": "Job not found"}
                }
            }
        },
        "/jobs/{jobID}/start": {
            "post": {
                "security": [{"DeviceToken": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Start a transcription job",
                "parameters": [
                    {"type": "string", "name": "jobID", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.StartJobRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.JobResponse"}},
                    "400": {"description": "Upload missing"},
                    "404": {"description": "Job not found"}
                }
            }
        }
    },
    "definitions": {
        "dto.BalanceResponse": {
            "type": "object",
            "properties": {"accountID": {"type": "string"}, "balance": {"type": "integer"}}
        },
        "dto.LedgerEntryResponse": {
            "type": "object",
            "properties": {
                "entryID": {"type": "string"},
                "delta": {"type": "integer"},
                "reason": {"type": "string"},
                "metadata": {"type": "object"},
                "createdAt": {"type": "string"}
            }
        },
        "dto.TranslateRequest": {
            "type": "object",
            "required": ["text", "targetLanguage"],
            "properties": {
                "text": {"type": "string"},
                "sourceLanguage": {"type": "string"},
                "targetLanguage": {"type": "string"}
            }
        },
        "dto.TranscribeRequest": {
            "type": "object",
            "required": ["segments"],
            "properties": {
                "language": {"type": "string"},
                "segments": {"type": "array", "items": {"$ref": "#/definitions/dto.AudioSegmentRequest"}}
            }
        },
        "dto.AudioSegmentRequest": {
            "type": "object",
            "required": ["audio", "mimeType"],
            "properties": {
                "audio": {"type": "string", "format": "byte"},
                "mimeType": {"type": "string"},
                "seconds": {"type": "number"}
            }
        },
        "dto.SpeechRequest": {
            "type": "object",
            "required": ["text"],
            "properties": {"text": {"type": "string"}, "voice": {"type": "string"}, "format": {"type": "string"}}
        },
        "dto.CreateJobResponse": {
            "type": "object",
            "properties": {"jobID": {"type": "string"}, "status": {"type": "string"}, "uploadURL": {"type": "string"}}
        },
        "dto.StartJobRequest": {
            "type": "object",
            "properties": {"language": {"type": "string"}}
        },
        "dto.JobResponse": {
            "type": "object",
            "properties": {
                "jobID": {"type": "string"},
                "status": {"type": "string"},
                "result": {"type": "object"},
                "error": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "Type \"Bearer\" followed by a space and JWT token.", "type": "apiKey", "name": "Authorization", "in": "header"},
        "DeviceToken": {"description": "Device token (UUID) identifying the account.", "type": "apiKey", "name": "X-Device-Token", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Usage Billing API",
	Description:      "Metered credit billing for translation, transcription and speech.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
