package hooks

import (
	"math"
	"regexp"
	"strconv"

	"github.com/goccy/go-json"
)

// Payload fields read when building template fields.
const (
	FieldCommand = "command"
	FieldURL     = "url"
	FieldResult  = "result"
)

// TemplateFields is the fixed set of values a hook message may reference.
type TemplateFields struct {
	Tool            string
	Command         string
	URL             string
	Params          map[string]interface{}
	Result          interface{}
	TurnNumber      int
	TurnCost        float64
	AccumulatedCost float64
	Threshold       float64
	BudgetLimit     float64
	MaxTurns        int
}

var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-z_]+)\s*\}\}`)

// Render substitutes {{placeholder}} references in tmpl. Unknown placeholders
// are left as written. Render never fails.
func Render(tmpl string, fields TemplateFields) string {
	if tmpl == "" {
		return ""
	}

	return placeholderRegex.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := placeholderRegex.FindStringSubmatch(match)[1]
		value, ok := fields.lookup(name)
		if !ok {
			return match
		}
		return value
	})
}

func (f TemplateFields) lookup(name string) (string, bool) {
	switch name {
	case "tool":
		return f.Tool, true
	case "command":
		return f.Command, true
	case "url":
		return f.URL, true
	case "params":
		if len(f.Params) == 0 {
			return "{}", true
		}
		return compactJSON(f.Params), true
	case "result":
		if s, ok := f.Result.(string); ok {
			return s, true
		}
		return compactJSON(f.Result), true
	case "turn_number":
		return strconv.Itoa(f.TurnNumber), true
	case "turn_cost":
		return formatCost(f.TurnCost), true
	case "accumulated_cost":
		return formatCost(f.AccumulatedCost), true
	case "threshold":
		return strconv.FormatFloat(math.Round(f.Threshold*10000)/100, 'f', -1, 64) + "%", true
	case "budget_limit":
		return formatCost(f.BudgetLimit), true
	case "max_turns":
		return strconv.Itoa(f.MaxTurns), true
	}
	return "", false
}

func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func compactJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
