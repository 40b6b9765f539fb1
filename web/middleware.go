package web

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

const adminPasswordHeader = "X-Admin-Password"

// AdminAuth guards the admin routes with the configured password.
func AdminAuth(password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(adminPasswordHeader)
		if password == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(password)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Senha administrativa incorreta.",
				"code":  "unauthorized",
			})
			return
		}
		c.Next()
	}
}

// isAdmin reports whether the request carries valid admin credentials; used
// to decide whether owner names are included in grid responses.
func isAdmin(c *gin.Context, password string) bool {
	provided := c.GetHeader(adminPasswordHeader)
	return password != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(password)) == 1
}
