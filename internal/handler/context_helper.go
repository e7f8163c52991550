package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smounat/ecole-plus-api/internal/middleware"
	"github.com/smounat/ecole-plus-api/internal/models"
	"github.com/smounat/ecole-plus-api/internal/service"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// callerTeacherID resolves the teacher record behind the caller's account.
// Non-teacher callers get an empty ID, which leaves listing filters unscoped
// and skips the grade ownership checks.
func callerTeacherID(c *gin.Context, teachers *service.TeacherService) (string, error) {
	claims := claimsFromContext(c)
	if claims == nil || claims.Role != models.RoleTeacher {
		return "", nil
	}
	teacher, err := teachers.GetByUserID(c.Request.Context(), claims.UserID)
	if err != nil {
		return "", err
	}
	return teacher.ID, nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
