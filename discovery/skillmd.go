// Package discovery parses SKILL.md documentation files into structured
// tool docs and maintains the per-skill cache that makes rediscovery cheap
// when neither the compiled artifact nor the documentation has changed.
package discovery

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lookatitude/skill-engine/skill"
)

// Frontmatter is the recognized set of SKILL.md YAML frontmatter keys,
// plus whatever else the author wrote.
type Frontmatter struct {
	Name         string
	Description  string
	AllowedTools []string
	Extra        map[string]any
}

// Example is a fenced code block found inside a tool's section.
type Example struct {
	Language string
	Code     string
}

// ParsedTool is a tool extracted from SKILL.md's body, plus the extras a
// Markdown doc carries that skill.Tool itself doesn't model.
type ParsedTool struct {
	skill.Tool
	Category string
	Examples []Example
}

// Doc is the full result of parsing one SKILL.md file.
type Doc struct {
	Frontmatter Frontmatter
	Body        string
	Tools       []ParsedTool
}

var frontmatterKeys = map[string]bool{"name": true, "description": true, "allowed-tools": true}

// Parse parses raw SKILL.md bytes. Absent frontmatter is not an error: it
// yields a zero Frontmatter and the entire input as Body.
func Parse(data []byte) (Doc, error) {
	text := string(data)
	fm, body, err := splitFrontmatter(text)
	if err != nil {
		return Doc{}, err
	}
	tools := extractTools(body)
	return Doc{Frontmatter: fm, Body: body, Tools: tools}, nil
}

func splitFrontmatter(text string) (Frontmatter, string, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return Frontmatter{}, text, nil
	}
	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			end = i
			break
		}
	}
	if end == -1 {
		// Unterminated frontmatter fence: treat the whole file as body,
		// matching the "absent frontmatter is not an error" leniency.
		return Frontmatter{}, text, nil
	}

	raw := strings.Join(lines[1:end], "\n")
	var generic map[string]any
	if strings.TrimSpace(raw) != "" {
		if err := yaml.Unmarshal([]byte(raw), &generic); err != nil {
			return Frontmatter{}, "", err
		}
	}

	fm := Frontmatter{Extra: make(map[string]any)}
	for k, v := range generic {
		switch strings.ToLower(k) {
		case "name":
			fm.Name, _ = v.(string)
		case "description":
			fm.Description, _ = v.(string)
		case "allowed-tools":
			if s, ok := v.(string); ok {
				fm.AllowedTools = splitCSV(s)
			}
		default:
			if !frontmatterKeys[strings.ToLower(k)] {
				fm.Extra[k] = v
			}
		}
	}

	body := strings.Join(lines[end+1:], "\n")
	return fm, body, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

var headingRe = regexp.MustCompile(`^(#{2,4})\s+(.*)$`)

type heading struct {
	level int
	text  string
	line  int
}

// extractTools scans body for a "## Tools" (or "## Tools Provided",
// case-insensitive match on "tools") section and extracts ### / ####
// tool blocks within it, per the heading-nesting rule: a ### followed by
// one or more #### children is a category label, not a tool itself; a
// ### with no #### children is itself the tool.
func extractTools(body string) []ParsedTool {
	lines := strings.Split(body, "\n")

	var headings []heading
	for i, line := range lines {
		m := headingRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		headings = append(headings, heading{level: len(m[1]), text: strings.TrimSpace(m[2]), line: i})
	}

	sectionStart, sectionEnd := -1, len(lines)
	for i, h := range headings {
		if h.level == 2 && strings.Contains(strings.ToLower(h.text), "tools") {
			sectionStart = h.line
			for j := i + 1; j < len(headings); j++ {
				if headings[j].level <= 2 {
					sectionEnd = headings[j].line
					break
				}
			}
			break
		}
	}
	if sectionStart == -1 {
		return nil
	}

	var inSection []heading
	for _, h := range headings {
		if h.level >= 3 && h.line > sectionStart && h.line < sectionEnd {
			inSection = append(inSection, h)
		}
	}

	var tools []ParsedTool
	for i := 0; i < len(inSection); i++ {
		h := inSection[i]
		if h.level != 3 {
			continue
		}
		// Does this ### have #### children before the next ### or higher?
		var children []heading
		end := sectionEnd
		for j := i + 1; j < len(inSection); j++ {
			if inSection[j].level <= 3 {
				end = inSection[j].line
				break
			}
			children = append(children, inSection[j])
		}
		if len(children) == 0 {
			tools = append(tools, buildTool(h.text, "", lines, h.line+1, end))
			continue
		}
		for k, c := range children {
			cend := end
			if k+1 < len(children) {
				cend = children[k+1].line
			}
			tools = append(tools, buildTool(c.text, h.text, lines, c.line+1, cend))
		}
	}
	return tools
}

var paramLineRe = regexp.MustCompile("^- `([^`]+)`\\s*\\(([^)]*)\\)(.*)$")
var typeWords = map[string]skill.ParamType{
	"string": skill.ParamString, "integer": skill.ParamInt, "int": skill.ParamInt,
	"number": skill.ParamNumber, "float": skill.ParamNumber,
	"boolean": skill.ParamBool, "bool": skill.ParamBool,
	"array": skill.ParamArray, "list": skill.ParamArray,
	"object": skill.ParamObject,
}

func buildTool(name, category string, lines []string, start, end int) ParsedTool {
	var desc strings.Builder
	var params []skill.Parameter
	var examples []Example

	inParams := false
	var fenceLang string
	var fenceBody strings.Builder
	inFence := false

	for i := start; i < end && i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inFence {
				examples = append(examples, Example{Language: fenceLang, Code: fenceBody.String()})
				inFence = false
				fenceBody.Reset()
			} else {
				inFence = true
				fenceLang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
			}
			continue
		}
		if inFence {
			fenceBody.WriteString(line)
			fenceBody.WriteString("\n")
			continue
		}

		if strings.HasPrefix(trimmed, "**Parameters**") {
			inParams = true
			continue
		}

		if inParams {
			if m := paramLineRe.FindStringSubmatch(trimmed); m != nil {
				params = append(params, parseParamLine(m[1], m[2], m[3]))
				continue
			}
			if trimmed == "" {
				continue
			}
			inParams = false
		}

		if trimmed != "" && desc.Len() == 0 {
			desc.WriteString(trimmed)
		}
	}

	return ParsedTool{
		Tool: skill.Tool{
			Name:        name,
			Description: desc.String(),
			Parameters:  params,
		},
		Category: category,
		Examples: examples,
	}
}

func parseParamLine(name, requiredFlag, rest string) skill.Parameter {
	p := skill.Parameter{Name: name}
	p.Required = strings.Contains(strings.ToLower(requiredFlag), "required")

	fields := strings.Split(rest, ".")
	if len(fields) == 0 {
		return p
	}

	head := strings.TrimSpace(fields[0])
	head = strings.TrimPrefix(head, ":")
	head = strings.TrimSpace(head)
	typeTok, description := head, ""
	if idx := strings.Index(head, ":"); idx != -1 {
		typeTok, description = head[:idx], strings.TrimSpace(head[idx+1:])
	}
	typeTok = strings.ToLower(strings.TrimSpace(typeTok))
	if t, ok := typeWords[typeTok]; ok {
		p.Type = t
	} else {
		p.Type = skill.ParamString
		if description == "" {
			description = head
		}
	}
	p.Description = description

	for _, field := range fields[1:] {
		field = strings.TrimSpace(field)
		switch {
		case strings.HasPrefix(strings.ToLower(field), "default:"):
			p.Default = strings.TrimSpace(field[len("default:"):])
		case strings.HasPrefix(strings.ToLower(field), "enum:"):
			raw := strings.TrimSpace(field[len("enum:"):])
			p.Enum = strings.Split(raw, "|")
			for i := range p.Enum {
				p.Enum[i] = strings.TrimSpace(p.Enum[i])
			}
		}
	}
	return p
}
