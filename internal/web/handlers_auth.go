package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/dgallion1/linkpost/internal/linkedin"
	"github.com/dgallion1/linkpost/internal/session"
)

// stateTTL bounds how long a member may take on the LinkedIn consent screen.
const stateTTL = 10 * time.Minute

func (s *Server) handleLinkedInAccess(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession(r)
	if err != nil {
		if !noSession(err) {
			s.log.Error("load session", "error", err)
			s.renderError(w, http.StatusInternalServerError, "Could not load your session.")
			return
		}
		s.startLogin(w, r)
		return
	}

	info, err := s.deps.LinkedIn.UserInfo(r.Context(), sess.AccessToken)
	if errors.Is(err, linkedin.ErrUnauthorized) {
		s.log.Info("linkedin token rejected, signing in again", "subject", sess.Subject)
		s.dropSession(w, r, sess)
		s.startLogin(w, r)
		return
	}
	if err != nil {
		s.log.Error("fetch userinfo", "subject", sess.Subject, "error", err)
		s.renderError(w, http.StatusBadGateway, "LinkedIn is not responding. Try again shortly.")
		return
	}

	data := s.page()
	data.Entity = info
	s.render(w, http.StatusOK, data)
}

func (s *Server) startLogin(w http.ResponseWriter, r *http.Request) {
	state, err := session.NewState()
	if err == nil {
		err = s.deps.Sessions.SaveState(r.Context(), state, stateTTL)
	}
	if err != nil {
		s.log.Error("save oauth state", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not start sign-in.")
		return
	}
	http.Redirect(w, r, s.deps.OAuth.AuthCodeURL(state), http.StatusFound)
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if e := q.Get("error"); e != "" {
		s.log.Warn("oauth denied", "error", e, "description", q.Get("error_description"))
		s.renderError(w, http.StatusBadRequest, "LinkedIn sign-in was not completed: "+e)
		return
	}
	code := q.Get("code")
	if code == "" {
		s.renderError(w, http.StatusBadRequest, "Missing authorization code.")
		return
	}

	ctx := r.Context()
	ok, err := s.deps.Sessions.ConsumeState(ctx, q.Get("state"))
	if err != nil {
		s.log.Error("consume oauth state", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not complete sign-in.")
		return
	}
	if !ok {
		s.renderError(w, http.StatusBadRequest, "Sign-in link expired or was already used. Please sign in again.")
		return
	}

	tok, err := s.deps.OAuth.Exchange(ctx, code)
	if err != nil {
		s.log.Error("exchange auth code", "error", err)
		s.renderError(w, http.StatusBadGateway, "LinkedIn did not accept the sign-in.")
		return
	}
	info, err := s.deps.LinkedIn.UserInfo(ctx, tok.AccessToken)
	if err != nil {
		s.log.Error("fetch userinfo", "error", err)
		s.renderError(w, http.StatusBadGateway, "Could not read your LinkedIn profile.")
		return
	}

	expires := s.now().Add(s.cfg.SessionTTL)
	if !tok.Expiry.IsZero() && tok.Expiry.Before(expires) {
		expires = tok.Expiry
	}
	sess := &session.Session{
		AccessToken: tok.AccessToken,
		ExpiresAt:   expires,
		Subject:     info.Sub,
		Name:        info.Name,
		GivenName:   info.GivenName,
		FamilyName:  info.FamilyName,
		Email:       info.Email,
		Picture:     info.Picture,
	}
	if err := s.deps.Sessions.Create(ctx, sess); err != nil {
		s.log.Error("create session", "error", err)
		s.renderError(w, http.StatusInternalServerError, "Could not complete sign-in.")
		return
	}
	s.log.Info("member signed in", "subject", sess.Subject, "expires_at", sess.ExpiresAt)

	s.setSessionCookie(w, sess)
	http.Redirect(w, r, "/linkedin_access", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if err := s.deps.Sessions.Delete(r.Context(), c.Value); err != nil {
			s.log.Error("delete session", "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
