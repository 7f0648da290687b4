package completion

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/pkg/errors"
)

// Tool is a function the model may ask the caller to run.
//
// Schema is a pointer to a struct describing the arguments; its JSON schema is
// derived from the struct's json and jsonschema tags.
type Tool struct {
	Name        string
	Description string
	Schema      any
}

type CityPopulationArgs struct {
	CityName string `json:"city_name" jsonschema_description:"The name of the city for which population data is needed, e.g., 'San Francisco'."`
}

var CityPopulation = Tool{
	Name:        "get_city_population",
	Description: "Retrieve the current population data for a specified city.",
	Schema:      &CityPopulationArgs{},
}

// Parameters returns the JSON schema of the tool's arguments.
func (t Tool) Parameters() (openai.FunctionParameters, error) {
	r := jsonschema.Reflector{
		Anonymous:      true,
		ExpandedStruct: true,
		DoNotReference: true,
	}
	raw, err := json.Marshal(r.Reflect(t.Schema))
	if err != nil {
		return nil, errors.Wrapf(err, "marshal schema for %s", t.Name)
	}
	params := openai.FunctionParameters{}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, errors.Wrapf(err, "unmarshal schema for %s", t.Name)
	}
	delete(params, "$schema")
	delete(params, "$id")
	return params, nil
}

func (t Tool) definition() (openai.FunctionDefinitionParam, error) {
	params, err := t.Parameters()
	if err != nil {
		return openai.FunctionDefinitionParam{}, err
	}
	return openai.FunctionDefinitionParam{
		Name:        t.Name,
		Description: openai.String(t.Description),
		Parameters:  params,
	}, nil
}

var toolPromptTmpl = template.Must(template.New("tool").Parse(`
You have access to the following function:

Function Name: '{{.Name}}'
Purpose: '{{.Description}}'
Parameters Schema: {{.Schema}}

Instructions for Using Functions:
1. Use the function '{{.Name}}' to retrieve data when required.
2. If a function call is necessary, reply ONLY in the following format:
   <function={{.Name}}>{{.Example}}</function>
3. Adhere strictly to the parameters schema. Ensure all required fields are provided.
4. Use the function only when you cannot directly answer using general knowledge.
5. If no function is necessary, respond to the query directly without mentioning the function.
`))

// ToolPrompt renders the system instruction that teaches the model the
// <function=NAME>{json-args}</function> convention for tool.
func ToolPrompt(tool Tool) (string, error) {
	params, err := tool.Parameters()
	if err != nil {
		return "", err
	}
	schema, err := json.MarshalIndent(params, "", "    ")
	if err != nil {
		return "", errors.Wrap(err, "indent schema")
	}
	example, err := exampleArgs(params)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = toolPromptTmpl.Execute(&buf, map[string]string{
		"Name":        tool.Name,
		"Description": tool.Description,
		"Schema":      string(schema),
		"Example":     example,
	})
	if err != nil {
		return "", errors.Wrap(err, "render tool prompt")
	}
	return buf.String(), nil
}

// exampleArgs builds {"field": "example_field", ...} for every required field.
func exampleArgs(params openai.FunctionParameters) (string, error) {
	ex := map[string]string{}
	if req, ok := params["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				ex[name] = "example_" + name
			}
		}
	}
	b, err := json.Marshal(ex)
	if err != nil {
		return "", errors.Wrap(err, "marshal example")
	}
	return string(b), nil
}

// Invocation is a parsed <function=NAME>{json}</function> marker.
type Invocation struct {
	Name      string
	Arguments json.RawMessage
}

var invocationRe = regexp.MustCompile(`(?s)<function=([A-Za-z0-9_\-]+)>\s*(\{.*?\})\s*</function>`)

// ParseInvocation finds the first invocation marker in text. It reports false
// when there is none or its arguments are not a JSON object.
func ParseInvocation(text string) (*Invocation, bool) {
	m := invocationRe.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	args := json.RawMessage(strings.TrimSpace(m[2]))
	if !json.Valid(args) {
		return nil, false
	}
	return &Invocation{Name: m[1], Arguments: args}, true
}

// Decode unmarshals the invocation's arguments into v.
func (inv *Invocation) Decode(v any) error {
	return errors.Wrapf(json.Unmarshal(inv.Arguments, v), "decode arguments of %s", inv.Name)
}

func FormatInvocation(name, args string) string {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	return fmt.Sprintf("<function=%s>%s</function>", name, args)
}
