package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/avandyck/newsdock/pkg/errors"
	"github.com/avandyck/newsdock/pkg/response"
	appValidator "github.com/avandyck/newsdock/pkg/validator"
)

// bindAndValidate binds the JSON payload into dest and runs struct validation
// rules. When validation fails, an error response is automatically written
// and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest("invalid JSON payload"))
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		response.Error(c, appErrors.NewBadRequest(formatValidationError(err)))
		return false
	}

	return true
}

func formatValidationError(err error) string {
	if err == nil {
		return "invalid request payload"
	}

	if ve, ok := err.(appValidator.ValidationErrors); ok {
		if len(ve) == 0 {
			return "invalid request payload"
		}

		messages := make([]string, 0, len(ve))
		for _, failure := range ve {
			switch failure.Tag {
			case "required":
				messages = append(messages, fmt.Sprintf("%s is required", failure.Field))
			case "min":
				messages = append(messages, fmt.Sprintf("%s must be at least %s", failure.Field, failure.Param))
			case "max":
				messages = append(messages, fmt.Sprintf("%s must be at most %s", failure.Field, failure.Param))
			default:
				if failure.Param != "" {
					messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", failure.Field, failure.Tag, failure.Param))
				} else {
					messages = append(messages, fmt.Sprintf("%s failed validation: %s", failure.Field, failure.Tag))
				}
			}
		}
		return strings.Join(messages, "; ")
	}

	return "invalid request payload"
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseBoolQuery(c *gin.Context, key string, fallback bool) bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

// parsePagesQuery reads a comma-separated list of page numbers.
func parsePagesQuery(c *gin.Context, key string) ([]int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, appErrors.NewBadRequest(fmt.Sprintf("%s query parameter is required", key))
	}

	var pages []int
	for _, part := range strings.Split(raw, ",") {
		page, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || page < 1 {
			return nil, appErrors.NewBadRequest(fmt.Sprintf("invalid page number %q", part))
		}
		pages = append(pages, page)
	}
	return pages, nil
}
