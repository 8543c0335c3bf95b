// Package handler exposes the command and query services over HTTP.
package handler

import (
	"net/http"

	"github.com/eaglebank/bank-api/internal/apperr"
	"github.com/eaglebank/bank-api/shared/middleware"
	"github.com/eaglebank/bank-api/shared/utils"
	"github.com/gin-gonic/gin"
)

var errInvalidAccountNumber = apperr.New(apperr.Validation, "Account number must be 8 digits")

// bindRequest decodes and validates the JSON body into req. It writes the
// 400 response itself and reports false when the request is unusable.
func bindRequest(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return false
	}
	return true
}

// caller returns the authenticated user id, answering 401 when there is none.
func caller(c *gin.Context) (string, bool) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		middleware.RespondWithAppError(c, err)
		return "", false
	}
	return userID, true
}

func accountNumberParam(c *gin.Context) (string, bool) {
	number := c.Param("accountNumber")
	if !utils.ValidateAccountNumber(number) {
		middleware.RespondWithAppError(c, errInvalidAccountNumber)
		return "", false
	}
	return number, true
}
