// Package docs holds the OpenAPI document served at /api/docs
// it follows the swag v2 layout so `swag init --v3.1` can regenerate it from the handler annotations
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "openapi": "3.1.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}"
    },
    "servers": [{"url": "{{.Host}}{{.BasePath}}"}],
    "paths": {
        "/identify": {
            "post": {
                "tags": ["identify"],
                "summary": "Classify a photo and queue refinement when it applies",
                "operationId": "identify",
                "requestBody": {
                    "required": true,
                    "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.IdentifyInput"}}}
                },
                "responses": {
                    "200": {
                        "description": "done or pending, the body is not enveloped",
                        "content": {"application/json": {"schema": {"$ref": "#/components/schemas/domain.IdentifyOutput"}}}
                    },
                    "415": {"description": "body is not application/json"},
                    "422": {"description": "gps out of range or undecodable image"},
                    "429": {"description": "too many captures in flight"},
                    "503": {"description": "provider unavailable or refinement queue down"}
                }
            }
        },
        "/identify/stream/{jobId}": {
            "get": {
                "tags": ["identify"],
                "summary": "Follow a refinement job until its terminal event",
                "description": "Server sent events, each frame is a data line holding {\"event\",\"data\"}; keep-alive comments may precede the single terminal frame",
                "operationId": "identifyStream",
                "parameters": [{"name": "jobId", "in": "path", "required": true, "schema": {"type": "string"}}],
                "responses": {
                    "200": {
                        "description": "completed, failed or error",
                        "content": {"text/event-stream": {"schema": {"$ref": "#/components/schemas/domain.StreamEvent"}}}
                    }
                }
            }
        },
        "/meta/health": {
            "get": {
                "tags": ["Meta"],
                "summary": "Liveness and uptime",
                "operationId": "metaHealth",
                "responses": {"200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.HealthResponse"}}}}}
            }
        },
        "/meta/ready": {
            "get": {
                "tags": ["Meta"],
                "summary": "Readiness of postgres and clickhouse when configured",
                "operationId": "metaReady",
                "responses": {"200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.ReadyResponse"}}}}}
            }
        },
        "/meta/version": {
            "get": {
                "tags": ["Meta"],
                "summary": "Build info",
                "operationId": "metaVersion",
                "responses": {"200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/version.BuildInfo"}}}}}
            }
        },
        "/meta/pipeline": {
            "get": {
                "tags": ["Meta"],
                "summary": "Pipeline wiring",
                "operationId": "metaPipeline",
                "responses": {"200": {"description": "OK", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/http.PipelineResponse"}}}}}
            }
        }
    },
    "components": {
        "schemas": {
            "geo.Point": {
                "type": "object",
                "properties": {
                    "lat": {"type": "number", "minimum": -90, "maximum": 90},
                    "lng": {"type": "number", "minimum": -180, "maximum": 180}
                }
            },
            "domain.IdentifyInput": {
                "type": "object",
                "required": ["imageData", "contentType"],
                "properties": {
                    "imageData": {"type": "string", "description": "base64 or data url", "example": "/9j/4AAQSkZJRgABAQ..."},
                    "contentType": {"type": "string", "maxLength": 100, "example": "image/jpeg"},
                    "gps": {"$ref": "#/components/schemas/geo.Point"},
                    "activeCollections": {"type": "array", "maxItems": 32, "items": {"type": "string"}, "example": ["Organisms", "Stanford"]}
                }
            },
            "domain.Tier1Result": {
                "type": "object",
                "properties": {
                    "label": {"type": ["string", "null"], "example": "Golden Retriever"},
                    "category": {"type": ["string", "null"], "example": "animal"},
                    "subcategory": {"type": ["string", "null"], "example": "dog"},
                    "rarityScore": {"type": ["number", "null"], "example": 42},
                    "rarityTier": {"type": "string", "enum": ["common", "uncommon", "rare", "epic", "mythic", "legendary"]},
                    "xpValue": {"type": "integer", "example": 5}
                }
            },
            "domain.Tier2Result": {
                "type": "object",
                "properties": {
                    "label": {"type": ["string", "null"], "example": "Canis lupus familiaris"},
                    "provider": {"type": "string", "example": "plant.id"},
                    "confidence": {"type": "number", "example": 0.9},
                    "landmarkId": {"type": "string", "example": "hoover-tower"},
                    "rarity": {"type": "string", "example": "rare"},
                    "secretRare": {"type": "boolean"}
                }
            },
            "domain.IdentifyOutput": {
                "type": "object",
                "properties": {
                    "status": {"type": "string", "enum": ["done", "pending"]},
                    "tier1": {"$ref": "#/components/schemas/domain.Tier1Result"},
                    "jobId": {"type": "string", "example": "6f1c2b9e-2d7c-4c1e-9a51-0d7f8f1f3c2a"},
                    "tier2": {"$ref": "#/components/schemas/domain.Tier2Result"}
                }
            },
            "domain.StreamEvent": {
                "type": "object",
                "properties": {
                    "event": {"type": "string", "enum": ["completed", "failed", "error"]},
                    "data": {"description": "tier2 result, null, or an error message"}
                }
            },
            "http.HealthResponse": {
                "type": "object",
                "properties": {
                    "ok": {"type": "boolean"},
                    "service": {"type": "string", "example": "worlddex-api"},
                    "started": {"type": "string"},
                    "uptime": {"type": "integer"}
                }
            },
            "http.ReadyCheck": {
                "type": "object",
                "properties": {
                    "name": {"type": "string", "example": "pg"},
                    "status": {"type": "string", "enum": ["ok", "fail", "skipped", "unknown"]},
                    "elapsedMs": {"type": "integer"},
                    "error": {"type": "string"}
                }
            },
            "http.ReadyResponse": {
                "type": "object",
                "properties": {
                    "status": {"type": "string", "enum": ["ok", "degraded", "fail"]},
                    "checks": {"type": "array", "items": {"$ref": "#/components/schemas/http.ReadyCheck"}}
                }
            },
            "http.PipelineResponse": {
                "type": "object",
                "properties": {
                    "tier1Engine": {"type": "string", "example": "gemini"},
                    "bannedTerms": {"type": "integer"},
                    "safePhrases": {"type": "integer"},
                    "collections": {"type": "object", "additionalProperties": {"type": "string"}},
                    "tier2Modules": {"type": "array", "items": {"type": "string"}},
                    "animalChain": {"type": "array", "items": {"type": "string"}},
                    "landmarkEngine": {"type": "string"},
                    "landmarks": {"type": "integer"},
                    "jobStore": {"type": "string", "enum": ["memory", "pg"]},
                    "workerInProcess": {"type": "boolean"},
                    "build": {"$ref": "#/components/schemas/version.BuildInfo"}
                }
            },
            "version.BuildInfo": {
                "type": "object",
                "properties": {
                    "service": {"type": "string"},
                    "version": {"type": "string"},
                    "commit": {"type": "string"},
                    "date": {"type": "string"},
                    "goVersion": {"type": "string"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "WorldDex API",
	Description:      "Two tier photo identification: immediate classification plus queued refinement streamed over SSE",
	InfoInstanceName: "api",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
