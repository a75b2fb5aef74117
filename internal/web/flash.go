package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
)

const flashCookieName = "tasktracker_flash"

// Flash holds one-shot messages carried across a redirect
type Flash struct {
	Notice string `json:"notice,omitempty"`
	Alert  string `json:"alert,omitempty"`
}

func (f Flash) Empty() bool {
	return f.Notice == "" && f.Alert == ""
}

// SetNotice stores a success message for the next page
func SetNotice(c *gin.Context, msg string) {
	setFlash(c, Flash{Notice: msg})
}

// SetAlert stores an error message for the next page
func SetAlert(c *gin.Context, msg string) {
	setFlash(c, Flash{Alert: msg})
}

// PopFlash reads and clears the pending flash
func PopFlash(c *gin.Context) Flash {
	raw, err := c.Cookie(flashCookieName)
	if err != nil || raw == "" {
		return Flash{}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, "", -1, "/", "", false, true)

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return Flash{}
	}

	var flash Flash
	if err := json.Unmarshal(data, &flash); err != nil {
		return Flash{}
	}
	return flash
}

func setFlash(c *gin.Context, flash Flash) {
	data, err := json.Marshal(flash)
	if err != nil {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookieName, base64.RawURLEncoding.EncodeToString(data), 0, "/", "", false, true)
}
