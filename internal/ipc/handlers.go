package ipc

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func respond(c echo.Context, a Answer) error {
	code := http.StatusOK
	if a.Kind == AnswerErr {
		code = http.StatusUnprocessableEntity
	}
	return c.JSON(code, a)
}

// POST /init
func initHandler(h Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		return respond(c, h.HandleRequest(Request{Kind: RequestInit}))
	}
}

// GET /query
func queryHandler(h Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		return respond(c, h.HandleRequest(Request{Kind: RequestQuery}))
	}
}

// POST /clear
func clearHandler(h Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body ClearRequest
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, Err("invalid clear request: %v", err))
		}
		return respond(c, h.HandleRequest(Request{Kind: RequestClear, Clear: &body}))
	}
}

// POST /img
func imgHandler(h Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body ImgRequest
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, Err("invalid img request: %v", err))
		}
		return respond(c, h.HandleRequest(Request{Kind: RequestImg, Img: &body}))
	}
}

// POST /animation
func animationHandler(h Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body AnimationRequest
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, Err("invalid animation request: %v", err))
		}
		return respond(c, h.HandleRequest(Request{Kind: RequestAnimation, Animation: &body}))
	}
}

// POST /kill
func killHandler(h Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		return respond(c, h.HandleRequest(Request{Kind: RequestKill}))
	}
}
