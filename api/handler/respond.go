package handler

import "github.com/gin-gonic/gin"

const sessionHeader = "Session-Id"

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
