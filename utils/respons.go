package utils

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondValidation writes a 400 with the failing fields in data.
func RespondValidation(c *gin.Context, err *ValidationError) {
	c.JSON(http.StatusBadRequest, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    gin.H{"fields": err.Fields},
	})
}

type Page struct {
	Count   int64       `json:"count"`
	Limit   int         `json:"limit"`
	Offset  int         `json:"offset"`
	Results interface{} `json:"results"`
}

const DefaultPageSize = 10

// ParsePage reads limit/offset query parameters.
func ParsePage(c *gin.Context) (limit, offset int, err error) {
	limit, offset = DefaultPageSize, 0
	if v := c.Query("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit <= 0 {
			return 0, 0, errors.New("invalid limit value, limit must be a positive integer")
		}
	}
	if v := c.Query("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, errors.New("invalid offset value")
		}
	}
	return limit, offset, nil
}
