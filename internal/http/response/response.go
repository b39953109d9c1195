package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dubmyyt/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError writes err using the status and code of the first
// apierr.Error in its chain, falling back to 500 with fallbackCode.
func RespondAPIError(c *gin.Context, err error, fallbackCode string) {
	ae := apierr.From(err, fallbackCode)
	if ae == nil {
		ae = apierr.Internal(fallbackCode, errors.New("unknown error"))
	}
	RespondError(c, ae.Status, ae.Code, ae)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
