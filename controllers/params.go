// Package controllers holds helpers shared by the HTTP handlers.
package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
)

// UintParam reads a numeric path parameter.
func UintParam(c *gin.Context, name string) (uint, error) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, apperr.Field(name, "must be a positive integer")
	}
	return uint(n), nil
}

// BoolQuery parses an optional boolean query parameter.
func BoolQuery(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperr.Field(name, "must be true or false")
	}
	return &v, nil
}

// Message is the body of endpoints that have nothing else to return.
func Message(msg string) gin.H {
	return gin.H{"message": msg}
}
