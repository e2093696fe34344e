package ipc

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo, h Handler) {
	e.POST("/init", initHandler(h))
	e.GET("/query", queryHandler(h))
	e.POST("/clear", clearHandler(h))
	e.POST("/img", imgHandler(h))
	e.POST("/animation", animationHandler(h))
	e.POST("/kill", killHandler(h))
}

func routeFor(kind RequestKind) (method, path string) {
	switch kind {
	case RequestQuery:
		return http.MethodGet, "/query"
	default:
		return http.MethodPost, "/" + string(kind)
	}
}
