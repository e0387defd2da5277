package notify

import (
    "bytes"
    "fmt"
    "strings"
    "text/template"
)

// Template types accepted by the invitation sender.
const (
    TemplateFormal   = "formal"
    TemplateCasual   = "casual"
    TemplateReminder = "reminder"
)

// MessageData is what invitation templates can reference.
type MessageData struct {
    Name     string
    Couple   string
    Date     string
    Venue    string
    Link     string
    Deadline string
    Custom   string
}

var defaultTemplates = map[string]string{
    TemplateFormal: `Prezado(a) {{.Name}},

Com muita alegria, {{.Couple}} têm a honra de convidá-lo(a) para a celebração do seu casamento{{if .Date}}, no dia {{.Date}}{{end}}{{if .Venue}}, em {{.Venue}}{{end}}.

Por favor confirme a sua presença através do link: {{.Link}}{{if .Deadline}}
Agradecemos a resposta até {{.Deadline}}.{{end}}{{if .Custom}}

{{.Custom}}{{end}}`,
    TemplateCasual: `Olá {{.Name}}! 💍

{{.Couple}} vão casar{{if .Date}} no dia {{.Date}}{{end}} e queremos muito você lá{{if .Venue}} ({{.Venue}}){{end}}!
Confirma aqui: {{.Link}}{{if .Custom}}

{{.Custom}}{{end}}`,
    TemplateReminder: `Olá {{.Name}}, ainda não recebemos a sua resposta ao convite de {{.Couple}}.{{if .Deadline}} O prazo termina em {{.Deadline}}.{{end}}
Confirme a sua presença aqui: {{.Link}}{{if .Custom}}

{{.Custom}}{{end}}`,
}

var subjects = map[string]string{
    TemplateFormal:   "Convite de casamento",
    TemplateCasual:   "Vem celebrar connosco!",
    TemplateReminder: "Lembrete: confirme a sua presença",
}

// Renderer renders invitation messages by template type.
type Renderer struct {
    tmpls map[string]*template.Template
}

// NewRenderer parses the built-in templates, replacing any whose type appears
// in overrides.
func NewRenderer(overrides map[string]string) (*Renderer, error) {
    r := &Renderer{tmpls: make(map[string]*template.Template, len(defaultTemplates))}
    for kind, body := range defaultTemplates {
        if o := strings.TrimSpace(overrides[kind]); o != "" {
            body = o
        }
        t, err := template.New(kind).Option("missingkey=zero").Parse(body)
        if err != nil {
            return nil, fmt.Errorf("parse %s template: %w", kind, err)
        }
        r.tmpls[kind] = t
    }
    return r, nil
}

// Kind normalises a template type, defaulting to formal.
func Kind(raw string) string {
    k := strings.ToLower(strings.TrimSpace(raw))
    if _, ok := defaultTemplates[k]; ok {
        return k
    }
    return TemplateFormal
}

// Render executes the template of the given type.
func (r *Renderer) Render(kind string, data MessageData) (string, error) {
    var buf bytes.Buffer
    if err := r.tmpls[Kind(kind)].Execute(&buf, data); err != nil {
        return "", err
    }
    return strings.TrimSpace(buf.String()), nil
}

// Subject returns the e-mail subject line for a template type.
func Subject(kind, couple string) string {
    s := subjects[Kind(kind)]
    if couple != "" {
        s += " · " + couple
    }
    return s
}
