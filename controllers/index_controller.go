package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Endpoint is one row of the API listing on the index page.
type Endpoint struct {
	Method string
	Path   string
	Auth   string
}

// IndexController serves the informational landing page.
type IndexController struct {
	endpoints []Endpoint
}

// NewIndexController creates an IndexController listing endpoints.
func NewIndexController(endpoints []Endpoint) *IndexController {
	return &IndexController{endpoints: endpoints}
}

// Index renders index.tmpl.
func (i *IndexController) Index(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "index.tmpl", gin.H{
		"title":     "socialboard",
		"endpoints": i.endpoints,
	})
}
