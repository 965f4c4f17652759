package handlers

import (
	"embed"
	"html/template"

	"anomalyse_dashboard/internal/flags"
)

//go:embed templates/*.html
var templateFS embed.FS

var badgeIcons = map[flags.Category]string{
	flags.CategoryVelocity:  "⚡",
	flags.CategoryAmount:    "$",
	flags.CategoryLocation:  "📍",
	flags.CategoryFrequency: "⟳",
	flags.CategoryCategory:  "🏷",
	flags.CategoryModel:     "🤖",
	flags.CategoryOther:     "⚑",
}

// Templates parses the embedded pages. The router installs them with
// SetHTMLTemplate.
func Templates() *template.Template {
	funcs := template.FuncMap{
		"badgeIcon": func(c flags.Category) string { return badgeIcons[c] },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
