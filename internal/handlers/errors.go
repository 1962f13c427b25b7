package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"sync"
)

//go:embed templates/error.html
var templateFS embed.FS

var (
	errorTemplate     *template.Template
	errorTemplateOnce sync.Once
	errorTemplateErr  error
)

// Messages shown for the statuses the file server produces.
var errorMessages = map[int]string{
	http.StatusNotFound:       "File not found",
	http.StatusForbidden:      "No permission",
	http.StatusNotImplemented: "Unsupported method",
}

// Longer explanations, one line each.
var errorExplanations = map[int]string{
	http.StatusBadRequest:                   "Bad request syntax or unsupported method",
	http.StatusForbidden:                    "Request forbidden -- authorization will not help",
	http.StatusNotFound:                     "Nothing matches the given URI",
	http.StatusMethodNotAllowed:             "Specified method is invalid for this resource",
	http.StatusNotImplemented:               "Server does not support this operation",
	http.StatusRequestedRangeNotSatisfiable: "Cannot satisfy request range",
	http.StatusInternalServerError:          "Server got itself in trouble",
}

// loadErrorTemplate parses the embedded error page once.
func loadErrorTemplate() (*template.Template, error) {
	errorTemplateOnce.Do(func() {
		errorTemplate, errorTemplateErr = template.ParseFS(templateFS, "templates/error.html")
		if errorTemplateErr != nil {
			errorTemplateErr = fmt.Errorf("error parsing error page template: %w", errorTemplateErr)
		}
	})
	return errorTemplate, errorTemplateErr
}

// ErrorMessage returns the short message used on the error page for statusCode.
func ErrorMessage(statusCode int) string {
	if msg, ok := errorMessages[statusCode]; ok {
		return msg
	}
	return http.StatusText(statusCode)
}

// RenderErrorPage writes statusCode and a small HTML page describing it.
// An empty message falls back to ErrorMessage(statusCode).
func RenderErrorPage(w http.ResponseWriter, statusCode int, message string) {
	if message == "" {
		message = ErrorMessage(statusCode)
	}
	explanation, ok := errorExplanations[statusCode]
	if !ok {
		explanation = http.StatusText(statusCode)
	}

	h := w.Header()
	h.Del("Content-Length")
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")

	tmpl, err := loadErrorTemplate()
	if err != nil {
		// Template is embedded, so this only happens on a broken build.
		http.Error(w, message, statusCode)
		return
	}

	w.WriteHeader(statusCode)
	data := map[string]interface{}{
		"Title":       "Error response",
		"StatusCode":  statusCode,
		"Message":     message,
		"Explanation": explanation,
	}
	// Headers are already out; a failed write means the client went away.
	_ = tmpl.Execute(w, data)
}
