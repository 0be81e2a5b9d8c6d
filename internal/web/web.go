// Package web holds the embedded browser UI assets.
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// SamplePrompts are the canned prompts offered in the sidebar. They run
// through the exact same send path as free-form input.
var SamplePrompts = []string{
	"Create a bar chart showing quarterly sales: Q1=$100K, Q2=$150K, Q3=$120K, Q4=$200K",
	"Generate a line plot showing temperature trends: Jan=32°F, Feb=35°F, Mar=45°F, Apr=58°F, May=68°F, Jun=78°F",
	"Create a pie chart of market share: Company A=35%, B=25%, C=20%, D=15%, Others=5%",
	"Make a scatter plot with 50 random data points showing correlation",
	"Create a CSV file with 10 rows of sample customer data (name, email, purchase_amount)",
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.tmpl")
}
