package goals

import (
	"encoding/json"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/roadmap/internal/apperror"
)

// goalFields reads goal fields from a request body, JSON or form-encoded.
type goalFields struct {
	values map[string]string
}

// get returns the trimmed field value and whether the field was present.
func (f goalFields) get(name string) (string, bool) {
	v, ok := f.values[name]
	return strings.TrimSpace(v), ok
}

// bindGoalInput extracts the goal fields. A JSON content type selects the
// JSON body (an unparseable one counts as empty); anything else is read as
// a form.
func bindGoalInput(c echo.Context) (GoalInput, error) {
	var fields goalFields
	if isJSON(c.Request().Header.Get(echo.HeaderContentType)) {
		fields = jsonFields(c)
	} else {
		form, err := c.FormParams()
		if err != nil {
			return GoalInput{}, apperror.NewBadRequest("invalid form body")
		}
		fields = formFields(form)
	}

	in := GoalInput{}
	in.Name, _ = fields.get("name")
	in.StartDate, _ = fields.get("start_date")
	in.DueDate, _ = fields.get("due_date")
	in.Description, _ = fields.get("description")
	if raw, ok := fields.get("display"); ok {
		in.Display = ParseDisplayInput(raw)
	}
	if tags, ok := fields.get("tags"); ok {
		in.Tags = &tags
	}
	return in, nil
}

func formFields(form url.Values) goalFields {
	values := make(map[string]string, len(form))
	for key := range form {
		values[key] = form.Get(key)
	}
	return goalFields{values: values}
}

// jsonFields decodes a flat JSON object. Numbers and booleans are
// stringified; null reads as an empty but present field.
func jsonFields(c echo.Context) goalFields {
	var body map[string]any
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return goalFields{}
	}

	values := make(map[string]string, len(body))
	for key, raw := range body {
		switch v := raw.(type) {
		case nil:
			values[key] = ""
		case string:
			values[key] = v
		case float64:
			values[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			values[key] = strconv.FormatBool(v)
		default:
			encoded, _ := json.Marshal(v)
			values[key] = string(encoded)
		}
	}
	return goalFields{values: values}
}

// isJSON matches application/json and any +json media type.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == echo.MIMEApplicationJSON || strings.HasSuffix(mediaType, "+json")
}
