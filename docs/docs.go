// Package docs holds the OpenAPI document served under /swagger.
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
        "/healthz": {
            "get": {
                "tags": [
                    "health"
                ],
                "summary": "Liveness and sales store breaker state",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    },
                    "503": {
                        "description": "Sales store breaker open"
                    }
                }
            }
        },
        "/login": {
            "post": {
                "tags": [
                    "auth"
                ],
                "summary": "Authenticate user and return JWT token",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "username and password"
                    }
                ]
            }
        },
        "/register": {
            "post": {
                "tags": [
                    "auth"
                ],
                "summary": "Register a new cashier",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "username and password"
                    }
                ]
            }
        },
        "/admin/users": {
            "post": {
                "tags": [
                    "admin"
                ],
                "summary": "Create user with custom role",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "username, password and role"
                    }
                ]
            }
        },
        "/products": {
            "get": {
                "tags": [
                    "products"
                ],
                "summary": "List all products",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "products"
                ],
                "summary": "Create a new product",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "product"
                    }
                ]
            }
        },
        "/products/search": {
            "get": {
                "tags": [
                    "products"
                ],
                "summary": "Filter and paginate products",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "name",
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "category",
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "minPrice",
                        "type": "number"
                    },
                    {
                        "in": "query",
                        "name": "maxPrice",
                        "type": "number"
                    },
                    {
                        "in": "query",
                        "name": "minStock",
                        "type": "integer"
                    },
                    {
                        "in": "query",
                        "name": "maxStock",
                        "type": "integer"
                    },
                    {
                        "in": "query",
                        "name": "offset",
                        "type": "integer"
                    },
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer"
                    }
                ]
            }
        },
        "/products/{id}": {
            "get": {
                "tags": [
                    "products"
                ],
                "summary": "Get product by ID",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ]
            },
            "put": {
                "tags": [
                    "products"
                ],
                "summary": "Update a product",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "product"
                    }
                ]
            },
            "delete": {
                "tags": [
                    "products"
                ],
                "summary": "Soft delete a product",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/products/{id}/blacklist": {
            "patch": {
                "tags": [
                    "products"
                ],
                "summary": "Blacklist a product",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    }
                ]
            }
        },
        "/products/{id}/sales": {
            "get": {
                "tags": [
                    "sales"
                ],
                "summary": "Get the sales of a product",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "in": "query",
                        "name": "since",
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "until",
                        "type": "string"
                    },
                    {
                        "in": "query",
                        "name": "offset",
                        "type": "integer"
                    },
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer"
                    }
                ]
            }
        },
        "/stock/batch": {
            "put": {
                "tags": [
                    "inventory"
                ],
                "summary": "Set stock and/or threshold of several products",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        },
                        "description": "list of id with stock and/or threshold"
                    }
                ]
            }
        },
        "/audit-logs": {
            "get": {
                "tags": [
                    "audit"
                ],
                "summary": "List audit log entries",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "since",
                        "type": "string",
                        "description": "Entries from this timestamp (RFC3339)"
                    },
                    {
                        "in": "query",
                        "name": "until",
                        "type": "string",
                        "description": "Entries until this timestamp (RFC3339)"
                    },
                    {
                        "in": "query",
                        "name": "offset",
                        "type": "integer"
                    },
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer"
                    }
                ]
            }
        },
        "/stock/{id}": {
            "put": {
                "tags": [
                    "inventory"
                ],
                "summary": "Set stock and/or threshold of a product",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "required": true,
                        "type": "integer"
                    },
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "stock and/or threshold"
                    }
                ]
            }
        },
        "/sales": {
            "post": {
                "tags": [
                    "sales"
                ],
                "summary": "Record a sale",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        },
                        "description": "cart"
                    }
                ]
            }
        },
        "/metrics/dashboard": {
            "get": {
                "tags": [
                    "metrics"
                ],
                "summary": "Dashboard metrics for admin view",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/alerts": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Low-stock alerts",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/analytics/restock-recommendations": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Restock recommendations",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "windowDays",
                        "type": "integer",
                        "description": "Lookback window in days (default 7)"
                    }
                ]
            }
        },
        "/analytics/trends": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Stock snapshot, daily sales of the last week and top products",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/analytics/low-stock-frequency": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Current below-threshold indicator per product with sales history",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/analytics/low-stock": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Active products at or below a fixed stock level",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "level",
                        "type": "integer",
                        "description": "Stock level (default 5)"
                    }
                ]
            }
        },
        "/analytics/deadstock": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Products without sales in the window",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "windowDays",
                        "type": "integer",
                        "description": "Lookback window in days (default 30)"
                    }
                ]
            }
        },
        "/analytics/sales-heatmap": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Sale counts per date and hour",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "windowDays",
                        "type": "integer",
                        "description": "Lookback window in days (default 30)"
                    }
                ]
            }
        },
        "/analytics/sales-over-time": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Units sold per day",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "windowDays",
                        "type": "integer",
                        "description": "Lookback window in days (default all history)"
                    }
                ]
            }
        },
        "/analytics/top-categories": {
            "get": {
                "tags": [
                    "analytics"
                ],
                "summary": "Best selling categories",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK"
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Restock Analytics API",
	Description:      "Inventory tracking with low-stock alerts, restock recommendations, trends and dead-stock reports.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
