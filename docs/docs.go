// Package docs expone la especificación OpenAPI servida en /swagger/*.
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
        "/me/emergency-contacts": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "emergency-contacts"
                ],
                "summary": "Mis contactos de emergencia",
                "parameters": [
                    {
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "post": {
                "description": "Si is_primary=true, el primary anterior deja de serlo.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "emergency-contacts"
                ],
                "summary": "Crear contacto de emergencia",
                "parameters": [
                    {
                        "description": "Contacto",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "payload inválido",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/me/emergency-contacts/{contactID}": {
            "patch": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "emergency-contacts"
                ],
                "summary": "Actualizar contacto de emergencia",
                "parameters": [
                    {
                        "description": "ID del contacto",
                        "name": "contactID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Campos a modificar",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "invalid json",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "delete": {
                "tags": [
                    "emergency-contacts"
                ],
                "summary": "Borrar contacto de emergencia",
                "parameters": [
                    {
                        "description": "ID del contacto",
                        "name": "contactID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/me/missing-reports": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "missing-reports"
                ],
                "summary": "Reportes que hice",
                "parameters": [
                    {
                        "description": "Máximo de items",
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Offset",
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/missing-reports": {
            "get": {
                "description": "Reportes abiertos, más recientes primero.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "missing-reports"
                ],
                "summary": "Feed de mascotas extraviadas",
                "parameters": [
                    {
                        "description": "Máximo de items",
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Offset",
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/missing-reports/{reportID}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "missing-reports"
                ],
                "summary": "Ver un reporte",
                "parameters": [
                    {
                        "description": "ID del reporte",
                        "name": "reportID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/missing-reports/{reportID}/archive": {
            "post": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "missing-reports"
                ],
                "summary": "Archivar reporte found",
                "parameters": [
                    {
                        "description": "ID del reporte",
                        "name": "reportID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "409": {
                        "description": "invalid report status transition",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/missing-reports/{reportID}/resolve": {
            "post": {
                "description": "Solo reportes abiertos. found estampa found_at. Si no queda otro reporte abierto la mascota vuelve a registered.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "missing-reports"
                ],
                "summary": "Resolver reporte (found | closed)",
                "parameters": [
                    {
                        "description": "ID del reporte",
                        "name": "reportID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Outcome",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "outcome inválido",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "409": {
                        "description": "missing report is not open",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/pets": {
            "post": {
                "description": "Crea la mascota y su primera huella en una sola transacción y le asigna el siguiente public_id (000-000-NNNNNNN). Si la huella o el número de registro ya pertenecen a otra mascota no se consume ningún ID.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pets"
                ],
                "summary": "Registrar mascota con huella de nariz",
                "parameters": [
                    {
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Perfil + photo_base64 o photo_hash",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "payload inválido / foto inválida",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "409": {
                        "description": "huella o número de registro ya registrados",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "503": {
                        "description": "store unavailable",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "507": {
                        "description": "secuencia de IDs agotada",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pets"
                ],
                "summary": "Listar mis mascotas",
                "parameters": [
                    {
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/pets/lookup/public/{publicID}": {
            "get": {
                "description": "\"No encontrada\" es una respuesta normal: 200 con found=false.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pets"
                ],
                "summary": "Buscar mascota por public_id",
                "parameters": [
                    {
                        "description": "ID público (000-000-NNNNNNN)",
                        "name": "publicID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "public_id inválido",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/pets/lookup/registration/{number}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pets"
                ],
                "summary": "Buscar mascota por número de registro gubernamental",
                "parameters": [
                    {
                        "description": "Número de registro",
                        "name": "number",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/pets/{petID}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pets"
                ],
                "summary": "Perfil de mascota (solo dueño)",
                "parameters": [
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "pet not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "patch": {
                "description": "PATCH real: campos ausentes no se tocan; \"birth_date\": null limpia la fecha. El status no se edita acá.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pets"
                ],
                "summary": "Actualizar perfil de mascota",
                "parameters": [
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Campos a modificar",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "invalid json / reglas de negocio",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "pet not found",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "409": {
                        "description": "número de registro ya registrado",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "delete": {
                "description": "Bloqueado mientras algún reporte de extravío referencie a la mascota.",
                "tags": [
                    "pets"
                ],
                "summary": "Borrar mascota",
                "parameters": [
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "pet not found",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "409": {
                        "description": "pet is referenced by missing reports",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/pets/{petID}/missing-reports": {
            "post": {
                "description": "Abre un reporte y marca la mascota como missing. Una mascota no puede tener dos reportes abiertos.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "missing-reports"
                ],
                "summary": "Reportar mascota extraviada",
                "parameters": [
                    {
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Datos del extravío",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "payload inválido",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "409": {
                        "description": "pet is already reported missing",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "missing-reports"
                ],
                "summary": "Historial de reportes de una mascota (solo dueño)",
                "parameters": [
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Máximo de items (default 50, máx 200)",
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Offset",
                        "name": "offset",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/pets/{petID}/nose-prints": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pets"
                ],
                "summary": "Agregar huella de nariz",
                "parameters": [
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "photo_base64 o photo_hash",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "foto inválida",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "pet not found",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "409": {
                        "description": "huella registrada a otra mascota",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "pets"
                ],
                "summary": "Listar huellas de una mascota",
                "parameters": [
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "pet not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/pets/{petID}/records": {
            "post": {
                "description": "Vacunas, visitas médicas, controles de salud y fotos. Solo el dueño. Autenticación: 'X-Debug-User-ID' (dev) o 'Authorization: Bearer <token>' (prod).",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "records"
                ],
                "summary": "Crear registro de cuidados",
                "parameters": [
                    {
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Datos del registro; occurred_at en formato RFC3339",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "invalid json / occurred_at inválido / reglas de negocio",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "pet not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            },
            "get": {
                "description": "Más recientes primero. Permite filtrar por tipos, rango de fechas y texto. Los anulados se omiten salvo include_voided=true.",
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "records"
                ],
                "summary": "Listar historial de una mascota",
                "parameters": [
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Máximo de registros a devolver (1-200). Por defecto 50",
                        "name": "limit",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    },
                    {
                        "description": "Lista CSV de tipos (ej: VACCINATION,HEALTH)",
                        "name": "types",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Fecha/hora mínima occurred_at (RFC3339)",
                        "name": "from",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Fecha/hora máxima occurred_at (RFC3339)",
                        "name": "to",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Texto de búsqueda libre en título/notas",
                        "name": "q",
                        "in": "query",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Incluir anulados",
                        "name": "include_voided",
                        "in": "query",
                        "required": false,
                        "type": "boolean"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "400": {
                        "description": "Parámetros de filtro inválidos",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "pet not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/pets/{petID}/records/upcoming-vaccinations": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "records"
                ],
                "summary": "Próximas vacunas",
                "parameters": [
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Ventana en días (1-365). Por defecto 30",
                        "name": "days",
                        "in": "query",
                        "required": false,
                        "type": "integer"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "type": "object"
                            }
                        }
                    },
                    "400": {
                        "description": "days inválido",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "pet not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/pets/{petID}/records/{recordID}/void": {
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "records"
                ],
                "summary": "Anular (void) un registro",
                "parameters": [
                    {
                        "description": "ID de la mascota",
                        "name": "petID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "ID del registro",
                        "name": "recordID",
                        "in": "path",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "description": "Motivo",
                        "name": "payload",
                        "in": "body",
                        "required": false,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "403": {
                        "description": "forbidden",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "404": {
                        "description": "record not found",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
            }
        },
        "/verifications": {
            "post": {
                "description": "no_match es una respuesta normal (200). En found_stray con la mascota extraviada se adjunta el reporte abierto (teléfono y lugar); si no está reportada, el contacto primary del dueño.",
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "verifications"
                ],
                "summary": "Verificar identidad por huella de nariz",
                "parameters": [
                    {
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header",
                        "required": false,
                        "type": "string"
                    },
                    {
                        "description": "mode + photo_base64 o photo_hash",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "payload inválido / foto inválida",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "401": {
                        "description": "unauthorized",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "503": {
                        "description": "store unavailable",
                        "schema": {
                            "type": "string"
                        }
                    }
                }
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
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pet Identity Registry API",
	Description:      "Registro de mascotas por huella de nariz, reportes de extravío y verificación.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
