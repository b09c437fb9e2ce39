package telephony

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/client"
	"go.uber.org/zap"
)

// SignatureHeader is the header Twilio signs webhook requests with.
const SignatureHeader = "X-Twilio-Signature"

// ValidateSignature verifies that webhook requests were signed by Twilio with
// our auth token. An empty token disables validation (local development and
// tests only).
func ValidateSignature(authToken, baseURL string, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	validator := client.NewRequestValidator(authToken)

	return func(c *gin.Context) {
		if authToken == "" {
			c.Next()
			return
		}

		if err := c.Request.ParseForm(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed form body"})
			c.Abort()
			return
		}

		params := make(map[string]string, len(c.Request.PostForm))
		for key, values := range c.Request.PostForm {
			if len(values) > 0 {
				params[key] = values[0]
			}
		}

		url := strings.TrimRight(baseURL, "/") + c.Request.URL.RequestURI()
		signature := c.GetHeader(SignatureHeader)
		if !validator.Validate(url, params, signature) {
			logger.Warn("rejected webhook with bad signature",
				zap.String("path", c.Request.URL.Path),
				zap.String("call_sid", params["CallSid"]))
			c.JSON(http.StatusForbidden, gin.H{"error": "Invalid signature"})
			c.Abort()
			return
		}

		c.Next()
	}
}
