package web

import (
	"net/http"

	"rootedinspeech/internal/models"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "home.html", &pageData{
		Title: s.cfg.Business.Name,
		User:  s.currentUser(r),
	})
}

func (s *Server) handleStaticPage(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusOK, "static.html", &pageData{
			Title: title,
			User:  s.currentUser(r),
			Data:  s.views.static[name],
		})
	}
}

func (s *Server) handleMoreInfo(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "faq.html", &pageData{
		Title: "More Info",
		User:  s.currentUser(r),
		Data:  s.views.faq,
	})
}

// currentUser reads the session of the request's profile. A storage failure renders
// as signed out.
func (s *Server) currentUser(r *http.Request) *models.User {
	user, err := s.sessions.Load(r.Context(), ProfileID(r.Context()))
	if err != nil {
		return nil
	}
	return user
}
