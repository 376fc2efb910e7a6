package tasks

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTmpl = template.Must(template.ParseFS(templateFS, "templates/page.html"))

type createTaskRequest struct {
	Text string `json:"text"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errResponse struct {
	Error   string       `json:"error"`
	Details []fieldError `json:"details,omitempty"`
}

// RegisterPageRoutes mounts the HTML page and its form actions.
func RegisterPageRoutes(r chi.Router, store *Store, logger *slog.Logger) {
	r.Get("/", showPage(store, logger))
	r.Post("/tasks", submitTask(store, logger))
	r.Post("/tasks/{id}/toggle", toggleFromPage(store))
	r.Post("/tasks/{id}/delete", deleteFromPage(store))
}

// RegisterAPIRoutes mounts the JSON API relative to r.
func RegisterAPIRoutes(r chi.Router, store *Store) {
	r.Get("/tasks", listTasks(store))
	r.Post("/tasks", createTask(store))
	r.Post("/tasks/{id}/toggle", toggleTask(store))
	r.Delete("/tasks/{id}", deleteTask(store))
	r.Get("/summary", summary(store))
}

func showPage(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f := ParseFilter(r.URL.Query().Get("filter"))
		renderPage(w, logger, store, f, "")
	}
}

// submitTask handles the add form. A blank draft re-renders the page with
// the draft still in the input; anything else redirects back to the list.
func submitTask(store *Store, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		f := ParseFilter(r.PostForm.Get("filter"))
		form := Form{Draft: r.PostForm.Get("text")}

		// Persist failures are already logged by the store; the page shows
		// the in-memory state either way.
		_, ok, _ := form.Submit(r.Context(), store)
		if !ok {
			renderPage(w, logger, store, f, form.Draft)
			return
		}
		redirectToList(w, r, f)
	}
}

func toggleFromPage(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, _ = store.Toggle(r.Context(), chi.URLParam(r, "id"))
		redirectToList(w, r, ParseFilter(r.PostFormValue("filter")))
	}
}

func deleteFromPage(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = store.Delete(r.Context(), chi.URLParam(r, "id"))
		redirectToList(w, r, ParseFilter(r.PostFormValue("filter")))
	}
}

func renderPage(w http.ResponseWriter, logger *slog.Logger, store *Store, f Filter, draft string) {
	page := BuildPage(store.Tasks(), f, draft, time.Now(), time.Local)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := pageTmpl.Execute(w, page); err != nil {
		logger.Error("render_failed", slog.String("error", err.Error()))
	}
}

func redirectToList(w http.ResponseWriter, r *http.Request, f Filter) {
	http.Redirect(w, r, "/?filter="+url.QueryEscape(string(f)), http.StatusSeeOther)
}

func listTasks(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		f := ParseFilter(r.URL.Query().Get("filter"))
		writeJSON(w, http.StatusOK, store.Visible(f))
	}
}

func createTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		var req createTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid_json"})
			return
		}

		if vErrs := validateCreateTask(req.Text); len(vErrs) > 0 {
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{
				Error:   "validation_error",
				Details: vErrs,
			})
			return
		}

		t, _, err := store.Add(r.Context(), req.Text)
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, t)
	}
}

func toggleTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		t, found, err := store.Toggle(r.Context(), chi.URLParam(r, "id"))
		if !found {
			writeJSON(w, http.StatusNotFound, errResponse{Error: "not_found"})
			return
		}
		if err != nil {
			writeStoreError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func deleteTask(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		found, err := store.Delete(r.Context(), chi.URLParam(r, "id"))
		if !found {
			w.Header().Set("Content-Type", "application/json")
			writeJSON(w, http.StatusNotFound, errResponse{Error: "not_found"})
			return
		}
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			writeStoreError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func summary(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		writeJSON(w, http.StatusOK, store.Summary())
	}
}

func validateCreateTask(text string) []fieldError {
	var errs []fieldError

	if strings.TrimSpace(text) == "" {
		errs = append(errs, fieldError{
			Field:   "text",
			Message: "text is required",
		})
	}

	return errs
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrPersist) {
		writeJSON(w, http.StatusInternalServerError, errResponse{Error: "persist_failed"})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errResponse{Error: "unexpected_error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
