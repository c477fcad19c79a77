package middleware

import (
	"net"

	"github.com/gin-gonic/gin"
)

// AllowPrivateIP bypasses rate limits for loopback and RFC 1918 callers such
// as in-cluster health checks.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		return isPrivate(ClientIP(c))
	}
}

// PrivatePeer reports whether the TCP peer itself is loopback or RFC 1918.
// Forwarding headers are ignored, so it is safe for access decisions.
func PrivatePeer(c *gin.Context) bool {
	return isPrivate(c.RemoteIP())
}

func isPrivate(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate()
}
