package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"wildtrack/ml"
	"wildtrack/overview"
)

//go:embed templates/*.html
var templateFS embed.FS

// views holds one parsed template set per page.
type views struct {
	index   *template.Template
	predict *template.Template
}

func parseViews() (*views, error) {
	funcs := template.FuncMap{
		"num": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
	}
	parse := func(page string) (*template.Template, error) {
		return template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
	}
	index, err := parse("index.html")
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	predict, err := parse("predict.html")
	if err != nil {
		return nil, fmt.Errorf("parse predict template: %w", err)
	}
	return &views{index: index, predict: predict}, nil
}

// render executes into a buffer first so a template error never leaves a
// half-written page.
func (h *handlers) render(w http.ResponseWriter, status int, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		h.log.Error("render template", zap.String("template", tmpl.Name()), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

type pageLink struct {
	Name string
	Href string
}

type indexView struct {
	Title    string
	Model    string
	Schema   ml.Schema
	Pages    []pageLink
	Datasets []overview.DatasetInfo
}

func (h *handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := indexView{Title: "WildTrack: Species Risk & Survival"}
	for _, p := range overview.Pages() {
		view.Pages = append(view.Pages, pageLink{Name: string(p), Href: "/api/overview/" + string(p)})
	}
	if b := h.bundle(); b != nil {
		view.Model = b.Service.Predictor().ModelType()
		view.Schema = b.Service.Predictor().Schema()
		view.Datasets = b.Overview.Datasets()
	}
	h.render(w, http.StatusOK, h.views.index, view)
}

type fieldView struct {
	Spec  ml.TraitSpec
	Value float64
}

type optionView struct {
	Label    string
	Selected bool
}

type resultView struct {
	AtRisk      bool
	Probability string
}

type predictView struct {
	Title      string
	Schema     ml.Schema
	Basic      bool
	Traits     []fieldView
	TempChange fieldView
	Social     []optionView
	Regions    []optionView
	Habitats   []optionView
	Result     *resultView
	Error      string
}

func options(labels []string, selected string) []optionView {
	out := make([]optionView, len(labels))
	for i, l := range labels {
		out[i] = optionView{Label: l, Selected: l == selected}
	}
	return out
}

// formView builds the form with the submitted values filled back in.
func formView(tables ml.Tables, schema ml.Schema, sel ml.Selection) predictView {
	view := predictView{
		Title:    "Predict Extinction Risk",
		Schema:   schema,
		Basic:    schema == ml.SchemaBasic,
		Social:   options(tables.SocialLabels(), sel.Social),
		Regions:  options(tables.RegionLabels(), sel.Region),
		Habitats: options(tables.HabitatLabels(), sel.Habitat),
	}
	for _, spec := range ml.TraitSpecs() {
		value, _ := sel.Traits.Get(spec.Field)
		view.Traits = append(view.Traits, fieldView{Spec: spec, Value: value})
	}
	spec := ml.TempChangeSpec()
	view.TempChange = fieldView{Spec: spec, Value: spec.Default}
	if sel.TempChange != nil {
		view.TempChange.Value = *sel.TempChange
	}
	return view
}

func (h *handlers) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	b := h.bundle()
	if b == nil {
		http.Error(w, "prediction unavailable: artifacts not loaded", http.StatusServiceUnavailable)
		return
	}
	encoder := b.Service.Encoder()
	h.render(w, http.StatusOK, h.views.predict, formView(encoder.Tables(), encoder.Schema(), ml.Selection{Traits: ml.DefaultTraits()}))
}

func (h *handlers) handlePredictSubmit(w http.ResponseWriter, r *http.Request) {
	b := h.bundle()
	if b == nil {
		http.Error(w, "prediction unavailable: artifacts not loaded", http.StatusServiceUnavailable)
		return
	}
	encoder := b.Service.Encoder()

	sel, err := parseSelection(r, encoder.Schema())
	view := formView(encoder.Tables(), encoder.Schema(), sel)
	if err == nil {
		var result *ml.Prediction
		result, err = h.predict(r.Context(), sel)
		if err == nil {
			view.Result = &resultView{AtRisk: result.AtRisk}
			if result.Probability != nil {
				view.Result.Probability = strconv.FormatFloat(*result.Probability, 'f', 2, 64)
			}
		}
	}
	status := http.StatusOK
	if err != nil {
		var e *apiError
		status, e = classify(err)
		view.Error = unavailableMessage(err, e)
	}
	h.render(w, status, h.views.predict, view)
}

func unavailableMessage(err error, e *apiError) string {
	var mismatch *ml.SchemaMismatchError
	if errors.As(err, &mismatch) {
		return "Prediction unavailable: the loaded model does not match the configured feature layout."
	}
	return "Prediction unavailable: " + e.Message
}

// parseSelection reads the form fields. A field that is not a number is
// reported as out of range.
func parseSelection(r *http.Request, schema ml.Schema) (ml.Selection, error) {
	if err := r.ParseForm(); err != nil {
		return ml.Selection{Traits: ml.DefaultTraits()}, fmt.Errorf("%w: %v", ml.ErrOutOfRange, err)
	}
	sel := ml.Selection{
		Traits:  ml.DefaultTraits(),
		Social:  r.PostForm.Get("social_structure"),
		Region:  r.PostForm.Get("region"),
		Habitat: r.PostForm.Get("habitat"),
	}
	var firstErr error
	for _, spec := range ml.TraitSpecs() {
		value, err := parseNumber(r.PostForm.Get(spec.Field), spec)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		sel.Traits.Set(spec.Field, value)
	}
	if schema == ml.SchemaBasic {
		if raw := r.PostForm.Get("temp_change"); raw != "" {
			value, err := parseNumber(raw, ml.TempChangeSpec())
			if err != nil && firstErr == nil {
				firstErr = err
			}
			if err == nil {
				sel.TempChange = &value
			}
		}
	}
	return sel, firstErr
}

func parseNumber(raw string, spec ml.TraitSpec) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", ml.ErrOutOfRange, spec.Field)
	}
	return value, nil
}
