package routes

import (
	"github.com/gin-gonic/gin"
	authControllers "github.com/junaidrashid-git/market-hub/controllers/auth"
	"github.com/junaidrashid-git/market-hub/middleware"
)

// SetupAuthRoutes registers all "/api/auth/*" endpoints.
func SetupAuthRoutes(api *gin.RouterGroup, d Deps) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authControllers.Register(d.DB, d.Mailer))
		authGroup.POST("/login", authControllers.Login(d.DB, d.Sessions, d.Config.RequireEmailVerification))
		authGroup.POST("/logout", authControllers.Logout(d.Sessions))
		authGroup.GET("/session", middleware.RequireAuth(d.DB, d.Sessions), authControllers.Session())

		authGroup.POST("/verify-email", authControllers.VerifyEmail(d.DB))
		authGroup.POST("/resend-verification", authControllers.ResendVerification(d.DB, d.Mailer))
		authGroup.POST("/forgot-password", authControllers.ForgotPassword(d.DB, d.Mailer))
		authGroup.POST("/reset-password", authControllers.ResetPassword(d.DB))

		if d.Google != nil {
			authGroup.POST("/google", authControllers.GoogleLogin(d.DB, d.Sessions, d.Google))
		}
	}
}
