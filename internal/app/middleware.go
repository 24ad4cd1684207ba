package app

import (
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/middleware"
)

func wireMiddleware(log *logger.Logger, s Services) *middleware.AuthMiddleware {
	return middleware.NewAuthMiddleware(log, s.Auth)
}
