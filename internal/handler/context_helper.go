package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/juanketo/BBMApp-sub000/internal/middleware"
	"github.com/juanketo/BBMApp-sub000/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.ClaimsFromContext(c)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if value, err := strconv.Atoi(c.Query(key)); err == nil {
		return value
	}
	return fallback
}
