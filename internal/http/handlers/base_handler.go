// README: Base handler utilities (JSON helpers, error mapping).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridenotify/internal/maps"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

var geoStatus = map[maps.Code]int{
	maps.CodeUnauthenticated: http.StatusUnauthorized,
	maps.CodeInvalidArgument: http.StatusBadRequest,
	maps.CodeNotFound:        http.StatusNotFound,
	maps.CodeInternal:        http.StatusInternalServerError,
}

func writeGeoError(c *gin.Context, err error) {
	code := maps.CodeOf(err)
	msg := "internal error"
	var e *maps.Error
	if errors.As(err, &e) {
		msg = e.Message
	}
	writeJSON(c, geoStatus[code], errorResponse{Error: msg, Code: string(code)})
}

func invalidArgument(c *gin.Context, msg string) {
	writeJSON(c, http.StatusBadRequest, errorResponse{Error: msg, Code: string(maps.CodeInvalidArgument)})
}
