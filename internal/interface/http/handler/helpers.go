package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	valueStr := c.Query(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// parseFloatQuery возвращает (nil, true), если параметра нет, и (nil, false), если он не число.
func parseFloatQuery(c *gin.Context, key string) (*float64, bool) {
	valueStr := c.Query(key)
	if valueStr == "" {
		return nil, true
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return nil, false
	}

	return &value, true
}

// parseIDParam вызывается после middleware.UUIDValidator, поэтому ошибка здесь маловероятна.
func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil
}
