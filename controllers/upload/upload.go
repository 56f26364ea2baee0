package uploadController

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"github.com/junaidrashid-git/market-hub/imagehost"
	"github.com/junaidrashid-git/market-hub/middleware"
	"github.com/junaidrashid-git/market-hub/models"
)

var (
	allFolders      = []string{"products", "brands", "categories", "avatars"}
	customerFolders = []string{"avatars"}
)

// POST /api/uploads/sign
func SignUpload(signer *imagehost.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Folder string `json:"folder" binding:"required,oneof=products brands categories avatars"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(apperr.Binding(err))
			return
		}

		user, _ := middleware.CurrentUser(c)
		allowed := allFolders
		if user.Role == models.RoleUser {
			allowed = customerFolders
		}
		if !slices.Contains(allowed, req.Folder) {
			c.Error(apperr.Forbidden("you cannot upload to this folder"))
			return
		}

		up, err := signer.SignUpload(req.Folder)
		if err != nil {
			c.Error(apperr.Internal("sign upload", err))
			return
		}
		c.JSON(http.StatusOK, up)
	}
}
