package web

import (
	"net/http"

	"rootedinspeech/internal/domain"
	"rootedinspeech/internal/models"
	"rootedinspeech/internal/service"
)

type accountData struct {
	Mode    service.FormMode
	Form    models.Credentials
	History *service.AccountHistory
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := s.currentUser(r)
	if user != nil {
		s.render(w, r, http.StatusOK, "account.html", &pageData{
			Title: "My Account",
			User:  user,
			Data:  accountData{History: s.accounts.History(ctx, user)},
		})
		return
	}

	mode := service.ParseFormMode(r.URL.Query().Get("mode"))
	s.render(w, r, http.StatusOK, "account.html", &pageData{
		Title: mode.Title(),
		Data:  accountData{Mode: mode},
	})
}

// handleAccountSubmit signs in or registers. A failure re-renders the form with
// name and email as entered; the password is never written back into the page.
func (s *Server) handleAccountSubmit(mode service.FormMode) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		creds := models.Credentials{
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}
		if mode == service.FormModeRegister {
			creds.Name = r.PostFormValue("name")
		}

		if _, err := s.accounts.Submit(ctx, ProfileID(ctx), mode, creds); err != nil {
			creds.Password = ""
			s.render(w, r, statusFor(err), "account.html", &pageData{
				Title: mode.Title(),
				Error: domain.UserMessage(err),
				Data:  accountData{Mode: mode, Form: creds},
			})
			return
		}

		http.Redirect(w, r, "/account", http.StatusSeeOther)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.accounts.Logout(ctx, ProfileID(ctx)); err != nil {
		s.logger.Error().Err(err).Msg("logout failed")
		http.Error(w, domain.UserMessage(err), http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/account", http.StatusSeeOther)
}
