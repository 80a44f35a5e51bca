package http

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"expenses/internal/app"
	"expenses/internal/core"
)

const partialCacheKey = "all"

// pieColors is the palette the breakdown legend and gradient cycle
// through.
var pieColors = []string{
	"#00b4d8", "#ff6b6b", "#ffd166", "#06d6a0", "#8338ec", "#fb8500",
	"#118ab2", "#ef476f", "#73d2de", "#8ac926",
}

type formView struct {
	Amount       string
	Category     string
	Categories   []string
	SelectedID   int64
	HasSelection bool
	Status       string
	StatusClass  string
}

type tableRow struct {
	ID       int64
	Amount   string
	Category string
	Date     string
}

type tableView struct {
	Rows []tableRow
}

type breakdownView struct {
	Total    string
	Gradient template.CSS
	Slices   []sliceView
}

type sliceView struct {
	Category string
	Amount   string
	Percent  string
	Color    template.CSS
}

func (s *Server) currentForm(status, statusClass string) formView {
	form := s.ctrl.Form()
	id, selected := s.ctrl.Selection()
	return formView{
		Amount:       form.Amount,
		Category:     form.Category,
		Categories:   core.Categories,
		SelectedID:   id,
		HasSelection: selected,
		Status:       status,
		StatusClass:  statusClass,
	}
}

// echoedForm builds a form view around values the user just typed, so
// a failed submit does not wipe the entry fields.
func (s *Server) echoedForm(amount, category, status, statusClass string) formView {
	id, selected := s.ctrl.Selection()
	return formView{
		Amount:       amount,
		Category:     category,
		Categories:   core.Categories,
		SelectedID:   id,
		HasSelection: selected,
		Status:       status,
		StatusClass:  statusClass,
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		Dark bool
		Form formView
	}{
		Dark: s.ctrl.DarkMode(),
		Form: s.currentForm("", ""),
	}
	s.render(w, r, "index.html", data)
}

// handleCreateExpense handles the form submit. The response replaces
// the entry form; validation failures keep the typed values, success
// clears them. An HX-Trigger header tells the table and chart
// partials to refresh.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.ErrorContext(r.Context(), "Parse form error", "error", err, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, r, "entry_form.html", s.currentForm("Invalid request format.", "error"))
		return
	}

	amountText := strings.TrimSpace(r.Form.Get("amount"))
	categoryText := sanitizeInput(r.Form.Get("category"))

	e, err := s.ctrl.SubmitNewExpense(r.Context(), amountText, categoryText)
	if err != nil {
		if core.IsValidation(err) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "entry_form.html", s.echoedForm(amountText, categoryText, validationMessage(err), "error"))
			return
		}
		slog.ErrorContext(r.Context(), "Expense create error", "error", err, "amount", amountText, "category", categoryText)
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "entry_form.html", s.echoedForm(amountText, categoryText, "Saving failed. The expense was not recorded.", "error"))
		return
	}

	s.invalidatePartials()
	w.Header().Set("HX-Trigger", "expenses:changed")
	s.render(w, r, "entry_form.html",
		s.currentForm("Expense #"+strconv.FormatInt(e.ID, 10)+" added: "+e.Amount.String()+" ("+e.Category+")", "success"))
}

// handleDeleteSelected removes the record whose row was last selected.
func (s *Server) handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id, _ := s.ctrl.Selection()
	err := s.ctrl.DeleteSelected(r.Context())
	if err != nil {
		if errors.Is(err, app.ErrNoSelection) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			s.render(w, r, "entry_form.html", s.currentForm("Please select an expense to delete.", "warning"))
			return
		}
		slog.ErrorContext(r.Context(), "Expense delete error", "error", err, "id", id)
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "entry_form.html", s.currentForm("Deleting failed. The expense was not removed.", "error"))
		return
	}

	s.invalidatePartials()
	w.Header().Set("HX-Trigger", "expenses:changed")
	s.render(w, r, "entry_form.html",
		s.currentForm("Expense #"+strconv.FormatInt(id, 10)+" deleted.", "success"))
}

// handleSelectRow records the clicked row as the current selection
// and mirrors its values into the entry form.
func (s *Server) handleSelectRow(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, r, "entry_form.html", s.currentForm("Invalid request format.", "error"))
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(r.Form.Get("id")), 10, 64)
	if err != nil || id <= 0 {
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, r, "entry_form.html", s.currentForm("Invalid row selection.", "error"))
		return
	}
	cents, err := core.ParseDecimalToCents(r.Form.Get("amount"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		s.render(w, r, "entry_form.html", s.currentForm("Invalid row selection.", "error"))
		return
	}
	category := sanitizeInput(r.Form.Get("category"))

	s.ctrl.SelectRow(id, core.Money{Cents: cents}, category)
	s.render(w, r, "entry_form.html", s.currentForm("", ""))
}

// handleToggleTheme flips the palette and sends the browser back to
// the restyled page.
func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	dark := s.ctrl.ToggleTheme()
	slog.InfoContext(r.Context(), "Theme toggled", "dark", dark)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleExpenseTable renders the table partial, newest first. The
// rendered HTML is cached until a mutation invalidates it.
func (s *Server) handleExpenseTable(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if html, found := s.tableCache.Get(partialCacheKey); found {
		slog.DebugContext(r.Context(), "Expense table cache hit")
		_, _ = w.Write([]byte(html))
		return
	}

	expenses, err := s.ctrl.Expenses(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List expenses error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Loading expenses failed.</div>`))
		return
	}

	view := tableView{}
	for _, e := range expenses {
		view.Rows = append(view.Rows, tableRow{
			ID:       e.ID,
			Amount:   e.Amount.String(),
			Category: e.Category,
			Date:     e.FormattedDate(),
		})
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "expense_table.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", "expense_table.html")
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	s.tableCache.Set(partialCacheKey, buf.String())
	_, _ = buf.WriteTo(w)
}

// handleBreakdown renders the pie-chart partial. An empty store is the
// informational "nothing to show" case, not an error.
func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if html, found := s.chartCache.Get(partialCacheKey); found {
		slog.DebugContext(r.Context(), "Breakdown cache hit")
		_, _ = w.Write([]byte(html))
		return
	}

	b, err := s.ctrl.Breakdown(r.Context())
	if err != nil {
		if errors.Is(err, core.ErrNoExpenses) {
			_, _ = w.Write([]byte(`<div class="placeholder">No expenses to show.</div>`))
			return
		}
		slog.ErrorContext(r.Context(), "Breakdown error", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Loading breakdown failed.</div>`))
		return
	}

	view := breakdownView{
		Total:    b.Total.String(),
		Gradient: pieGradient(b.Slices),
	}
	for i, sl := range b.Slices {
		view.Slices = append(view.Slices, sliceView{
			Category: sl.Category,
			Amount:   sl.Total.String(),
			Percent:  sl.Percent(),
			Color:    template.CSS(pieColors[i%len(pieColors)]),
		})
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "breakdown.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", "breakdown.html")
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	s.chartCache.Set(partialCacheKey, buf.String())
	_, _ = buf.WriteTo(w)
}

// pieGradient builds a conic-gradient stop list from the slice shares.
// The final stop is pinned to 100% so rounding never leaves a gap.
func pieGradient(slices []core.CategoryTotal) template.CSS {
	var sb strings.Builder
	sb.WriteString("conic-gradient(")
	acc := 0.0
	for i, sl := range slices {
		from := acc
		acc += sl.Share * 100
		to := acc
		if i == len(slices)-1 {
			to = 100
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(pieColors[i%len(pieColors)])
		sb.WriteString(" ")
		sb.WriteString(strconv.FormatFloat(from, 'f', 2, 64))
		sb.WriteString("% ")
		sb.WriteString(strconv.FormatFloat(to, 'f', 2, 64))
		sb.WriteString("%")
	}
	sb.WriteString(")")
	return template.CSS(sb.String())
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrEmptyAmount):
		return "All fields are required."
	case errors.Is(err, core.ErrEmptyCategory):
		return "All fields are required."
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number."
	default:
		return "Invalid input."
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
