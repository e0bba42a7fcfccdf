package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"rootedinspeech/internal/config"
	"rootedinspeech/internal/models"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates/*.html content/*.md
var assets embed.FS

// Raw HTML in page copy is escaped; WithUnsafe is not set.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var pageTemplates = []string{"home.html", "static.html", "faq.html", "schedule.html", "account.html"}

const appointmentTimeLayout = "Mon, Jan 2, 2006 3:04 PM MST"

// pageData is handed to every template. Data holds the view-specific part.
type pageData struct {
	Title     string
	Path      string
	Business  config.BusinessConfig
	User      *models.User
	Year      int
	CSRFField template.HTML
	Error     string
	Data      any
}

type faqItem struct {
	Question string
	Answer   template.HTML
}

type views struct {
	pages  map[string]*template.Template
	static map[string]template.HTML
	faq    []faqItem
}

func newViews(loc *time.Location) (*views, error) {
	if loc == nil {
		loc = time.Local
	}
	funcs := template.FuncMap{
		"money":    formatMoney,
		"shortRef": models.ShortRef,
		"localTime": func(a models.Appointment) string {
			t := a.StartTime()
			if t.IsZero() {
				return a.StartTimeISO
			}
			return t.In(loc).Format(appointmentTimeLayout)
		},
	}

	v := &views{
		pages:  make(map[string]*template.Template, len(pageTemplates)),
		static: make(map[string]template.HTML),
	}
	for _, name := range pageTemplates {
		tpl, err := template.New("layout.html").Funcs(funcs).ParseFS(assets, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		v.pages[name] = tpl
	}

	for _, name := range []string{"about", "behavior-consultation"} {
		src, err := assets.ReadFile("content/" + name + ".md")
		if err != nil {
			return nil, err
		}
		html, err := renderMarkdown(src)
		if err != nil {
			return nil, fmt.Errorf("content %s: %w", name, err)
		}
		v.static[name] = html
	}

	src, err := assets.ReadFile("content/more-info.md")
	if err != nil {
		return nil, err
	}
	if v.faq, err = parseFAQ(src); err != nil {
		return nil, err
	}

	return v, nil
}

func (v *views) execute(w io.Writer, name string, data *pageData) error {
	tpl, ok := v.pages[name]
	if !ok {
		return fmt.Errorf("unknown template %q", name)
	}
	return tpl.Execute(w, data)
}

func renderMarkdown(src []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert(src, &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// parseFAQ splits the document on level-two headings. Each heading is a question
// and the text up to the next heading is its answer.
func parseFAQ(src []byte) ([]faqItem, error) {
	var items []faqItem
	for _, block := range strings.Split("\n"+string(src), "\n## ")[1:] {
		question, answer, _ := strings.Cut(block, "\n")
		html, err := renderMarkdown([]byte(strings.TrimSpace(answer)))
		if err != nil {
			return nil, err
		}
		items = append(items, faqItem{Question: strings.TrimSpace(question), Answer: html})
	}
	return items, nil
}

// formatMoney renders cents as dollars with two decimals and thousands separators.
func formatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "$" + humanize.FormatInteger("#,###.", int(cents/100)) + fmt.Sprintf(".%02d", cents%100)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) {
	data.Path = r.URL.Path
	data.Business = s.cfg.Business
	data.Year = time.Now().Year()
	data.CSRFField = csrf.TemplateField(r)

	var buf bytes.Buffer
	if err := s.views.execute(&buf, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
