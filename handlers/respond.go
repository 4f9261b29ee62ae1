// Package handlers exposes the HTTP surface of the challan backend.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/echallan/backend/lifecycle"
)

// domainError writes a lifecycle error in the wire format clients expect:
// {"detail": "..."} with 404 for missing entities, 400 for conflicts and
// validation failures, 500 for everything else.
func domainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	detail := "Internal server error"

	switch {
	case lifecycle.IsNotFound(err):
		status = http.StatusNotFound
		detail = err.Error()
	case lifecycle.IsConflict(err), lifecycle.IsInvalid(err):
		status = http.StatusBadRequest
		detail = err.Error()
	}

	c.JSON(status, gin.H{"detail": detail})
}
