package response

import (
	"net/http"

	"loyaltystay/errors"

	"github.com/gin-gonic/gin"
)

// Response is the JSON envelope of every endpoint.
type Response struct {
	Code  int         `json:"code"`
	Mess  string      `json:"mess"`
	Error string      `json:"error,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

type ResponseTotal struct {
	Code  int         `json:"code"`
	Mess  string      `json:"mess"`
	Data  interface{} `json:"data,omitempty"`
	Total int         `json:"total"`
}

// Success answers 200 with data
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code: 1,
		Mess: "Success",
		Data: data,
	})
}

func SuccessWithTotal(c *gin.Context, data interface{}, total int) {
	c.JSON(http.StatusOK, ResponseTotal{
		Code:  1,
		Mess:  "Success",
		Total: total,
		Data:  data,
	})
}

// Created answers 201 with data
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code: 1,
		Mess: "Created",
		Data: data,
	})
}

// FromError answers with the status of the error's code. Errors outside the
// taxonomy are reported as UNKNOWN_ERROR without their detail.
func FromError(c *gin.Context, err error) {
	appErr := errors.GetAppError(err)
	if appErr == nil {
		_ = c.Error(err)
		ServerError(c)
		return
	}
	if appErr.Err != nil {
		_ = c.Error(err)
	}
	c.JSON(errors.HTTPStatus(appErr.Code), Response{
		Code:  0,
		Mess:  appErr.Message,
		Error: string(appErr.Code),
	})
}

func ServerError(c *gin.Context) {
	c.JSON(http.StatusInternalServerError, Response{
		Code:  0,
		Mess:  "Internal server error",
		Error: string(errors.ErrCodeUnknown),
	})
}

func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Code: 0,
		Mess: "Unauthorized",
	})
}

func Forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, Response{
		Code: 0,
		Mess: "Forbidden",
	})
}

// BadRequest answers 400 with message
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Code:  0,
		Mess:  message,
		Error: string(errors.ErrCodeBadRequest),
	})
}
