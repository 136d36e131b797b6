package layouts

import (
	"strings"

	"github.com/alpacahq/gocaptable/utils/clock"
)

type Layout string

const year = "{current_year}"

// Base returns email template with current year
func Base() Layout {
	return Layout(strings.Replace(string(base), year, clock.Now().Format("2006"), 1))
}

var base Layout = `
{{ define "layout" }}
<!DOCTYPE html>
<html>
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <style type="text/css">
    body { font-family: Helvetica, Arial, sans-serif; font-size: 14px; color: #333333; }
    td { padding: 4px 12px 4px 0; }
  </style>
</head>
<body style="margin: 0; padding: 24px; background-color: #f4f4f4;">
  <div style="max-width: 600px; margin: auto; background-color: #ffffff; padding: 32px;">
    {{ template "content" . }}
  </div>
  <div style="max-width: 600px; margin: auto; padding: 12px; font-size: 11px; color: #999999; text-align: center;">
    &copy; {current_year} Cap Table Engine. This is an automated message.
  </div>
</body>
</html>
{{ end }}
`
