package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/dubmyyt/internal/domain"
	httpMW "github.com/yungbote/dubmyyt/internal/http/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageTemplates parses the embedded views for gin's HTML renderer.
func PageTemplates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type language struct {
	Code  string
	Label string
}

type PageHandler struct {
	languages []language
}

func NewPageHandler() *PageHandler {
	var langs []language
	for _, l := range types.Languages() {
		langs = append(langs, language{Code: string(l), Label: l.Label()})
	}
	return &PageHandler{languages: langs}
}

func (h *PageHandler) Landing(c *gin.Context) {
	c.HTML(http.StatusOK, "landing.html", gin.H{"SignedIn": httpMW.CurrentSession(c) != nil})
}

// Auth renders the login view. A visitor who is already signed in goes
// straight to where they were headed.
func (h *PageHandler) Auth(c *gin.Context) {
	if httpMW.CurrentSession(c) != nil {
		c.Redirect(http.StatusFound, resumeTarget(c.Query("from"), c.Query("feature")))
		return
	}
	c.HTML(http.StatusOK, "auth.html", gin.H{
		"From":    httpMW.SafeReturnPath(c.Query("from")),
		"Feature": c.Query("feature"),
		"SignUp":  c.Query("mode") == "signup",
	})
}

// App renders the workspace. Landing links pass ?feature= and the post-login
// redirect passes ?defaultFeature=; either preselects the action.
func (h *PageHandler) App(c *gin.Context) {
	sess := httpMW.CurrentSession(c)
	feature := c.Query("defaultFeature")
	if feature == "" {
		feature = c.Query("feature")
	}
	c.HTML(http.StatusOK, "app.html", gin.H{
		"Email":          sess.Email,
		"Languages":      h.languages,
		"DefaultLang":    string(types.DefaultLanguage),
		"DefaultFeature": feature,
	})
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	c.HTML(http.StatusOK, "dashboard.html", gin.H{"Email": httpMW.CurrentSession(c).Email})
}
