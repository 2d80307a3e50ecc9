package ginserver

import gin "github.com/gin-gonic/gin"

// Stable machine-readable error codes exposed at the HTTP boundary. Message
// text may change; these codes may not.
const (
	codeUnauthenticated  = "UNAUTHENTICATED"
	codePermissionDenied = "PERMISSION_DENIED"
	codeInvalidArgument  = "INVALID_ARGUMENT"
	codeNotFound         = "NOT_FOUND"
	codeStorageFailure   = "STORAGE_FAILURE"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": message, "code": code})
}
