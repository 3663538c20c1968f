// Package web embeds the HTML report templates and their stylesheet.
package web

import (
	"embed"
)

//go:embed static/css/report.css
var CSS string

//go:embed templates/*.html
var Templates embed.FS
