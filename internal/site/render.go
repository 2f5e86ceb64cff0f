package site

import (
	"bytes"
	"embed"
	"encoding/json"
	htmltemplate "html/template"
	texttemplate "text/template"

	"contabile/internal/model"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// attrLayout is the machine-readable timestamp embedded on each item for
// client-side "now" detection. Local wall-clock time, no zone suffix.
const attrLayout = "2006-01-02T15:04"

// itemView is the template- and hash-facing projection of a model.Item.
type itemView struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Room       string `json:"room"`
	StartAttr  string `json:"start"`
	EndAttr    string `json:"end"`
	StartLabel string `json:"start_label"`
	EndLabel   string `json:"end_label"`
	Highlight  bool   `json:"highlight,omitempty"`
}

type dayView struct {
	Name  string     `json:"name"`
	Items []itemView `json:"items"`
}

type pageView struct {
	Convention string    `json:"convention"`
	Days       []dayView `json:"days"`
}

func newPageView(s model.Schedule) pageView {
	page := pageView{Convention: s.Convention, Days: make([]dayView, 0, len(s.Days))}
	for _, day := range s.Days {
		dv := dayView{Name: day.Name, Items: make([]itemView, 0, len(day.Items))}
		for _, it := range day.Items {
			dv.Items = append(dv.Items, itemView{
				ID:         it.ID,
				Title:      it.Title,
				Room:       it.Room,
				StartAttr:  it.Start.Format(attrLayout),
				EndAttr:    it.End.Format(attrLayout),
				StartLabel: it.StartLabel,
				EndLabel:   it.EndLabel,
				Highlight:  it.Highlight,
			})
		}
		page.Days = append(page.Days, dv)
	}
	return page
}

func renderIndex(page pageView) ([]byte, error) {
	tmpl, err := htmltemplate.ParseFS(templateFS, "templates/index.html.tmpl")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, page); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderManifest(convention, themeColor, backgroundColor string) ([]byte, error) {
	tmpl, err := texttemplate.New("manifest.json.tmpl").
		Funcs(texttemplate.FuncMap{"json": jsonString}).
		ParseFS(templateFS, "templates/manifest.json.tmpl")
	if err != nil {
		return nil, err
	}
	data := struct {
		Convention      string
		ThemeColor      string
		BackgroundColor string
	}{convention, themeColor, backgroundColor}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderServiceWorker(hash string, files []string) ([]byte, error) {
	tmpl, err := texttemplate.ParseFS(templateFS, "templates/sw.js.tmpl")
	if err != nil {
		return nil, err
	}
	filesJSON, err := json.Marshal(files)
	if err != nil {
		return nil, err
	}
	data := struct {
		ContentHash string
		FilesJSON   string
	}{hash, string(filesJSON)}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// jsonString renders s as a JSON string literal for the manifest template,
// which text/template would otherwise not escape.
func jsonString(s string) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
