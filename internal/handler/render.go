package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/EgehanKilicarslan/tasktracker/internal/middleware"
	"github.com/EgehanKilicarslan/tasktracker/internal/web"
)

// render fills in the data every page layout reads (flash and session)
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = web.PopFlash(c)
	}
	data["Session"] = middleware.CurrentSession(c)
	c.HTML(status, name, data)
}

func renderError(c *gin.Context, status int, title, message string) {
	render(c, status, "errors/show", gin.H{
		"Title":   title,
		"Message": message,
	})
}

func renderInternalError(c *gin.Context) {
	renderError(c, http.StatusInternalServerError, "Something went wrong", "The request could not be completed.")
}

// parseID reads the :id path parameter
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// optionalForm distinguishes an absent field (nil) from an empty one
func optionalForm(c *gin.Context, key string) *string {
	if value, ok := c.GetPostForm(key); ok {
		return &value
	}
	return nil
}
