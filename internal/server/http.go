package server

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/ironsheep/keypoint-annotator/internal/auth"
	"github.com/ironsheep/keypoint-annotator/internal/imaging"
	"github.com/ironsheep/keypoint-annotator/internal/session"
)

// CookieName holds the login token.
const CookieName = "keypoint_session"

// maxRequestBytes bounds a JSON-RPC request body.
const maxRequestBytes = 1 << 20

//go:embed web/*.html
var webFS embed.FS

var pages = template.Must(template.ParseFS(webFS, "web/*.html"))

type pageData struct {
	Msg     string
	Email   string
	Version string
}

// Handler returns the HTTP interface. It needs Options.Accounts.
func (s *Server) Handler() (http.Handler, error) {
	if s.accounts == nil {
		return nil, errors.New("http interface needs an account registry")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /signup", s.handleSignupPage)
	mux.HandleFunc("POST /signup", s.handleSignup)
	mux.HandleFunc("GET /logout", s.handleLogout)
	mux.HandleFunc("POST /rpc", s.handleRPC)
	mux.HandleFunc("GET /image.png", s.handleImage)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	return mux, nil
}

func (s *Server) token(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	if !s.gate.Authorized(c.Value) {
		return "", false
	}
	return c.Value, true
}

func (s *Server) render(w http.ResponseWriter, status int, page string, data pageData) {
	data.Version = s.version
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pages.ExecuteTemplate(w, page, data); err != nil {
		s.log.Error().Err(err).Str("page", page).Msg("failed to render page")
	}
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "login.html", pageData{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	token, err := s.accounts.SignIn(email, r.PostFormValue("password"))
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		s.render(w, http.StatusBadRequest, "login.html", pageData{Msg: "Missing Fields", Email: email})
		return
	case err != nil:
		s.log.Info().Str("email", email).Msg("sign-in failed")
		s.render(w, http.StatusUnauthorized, "login.html", pageData{Msg: "Invalid credentials", Email: email})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	s.log.Info().Str("email", email).Msg("signed in")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "signup.html", pageData{})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	if err := s.accounts.SignUp(email, r.PostFormValue("password")); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, auth.ErrUserExists) {
			status = http.StatusConflict
		}
		s.log.Info().Str("email", email).Err(err).Msg("sign-up failed")
		s.render(w, status, "signup.html", pageData{Msg: "Failed to register", Email: email})
		return
	}
	s.log.Info().Str("email", email).Msg("user created")
	s.render(w, http.StatusOK, "login.html", pageData{Msg: "Successfully created user", Email: email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(CookieName); err == nil {
		s.accounts.SignOut(c.Value)
		s.sessions.drop(c.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.token(r); !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "index.html", pageData{})
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	var req RPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, s.errorResponse(nil, CodeParseError, "Parse error", err.Error()))
		return
	}

	token, ok := s.token(r)
	if !ok && isSessionMethod(req.Method) {
		writeJSON(w, http.StatusUnauthorized, s.errorResponse(req.ID, CodeUnauthorized, "Unauthorized", "sign in first"))
		return
	}

	resp := s.handleRequest(r.Context(), token, &req)
	if resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleImage streams the current image with its markers.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	token, ok := s.token(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign in first"})
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != imaging.FormatPNG && format != imaging.FormatWebP {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported format"})
		return
	}

	e, err := s.sessions.getOrCreate(token, s.newSession)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	e.mu.Lock()
	snap, err := e.sess.Snapshot()
	e.mu.Unlock()
	if err != nil {
		if !session.IsRecoverable(err) {
			s.sessions.dropIf(token, e)
		}
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		return
	}

	img, err := s.images.ImageAt(snap.ImageIndex)
	if err != nil {
		s.log.Error().Err(err).Str("image", snap.Render.ImageRef).Msg("failed to load image")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "image unavailable"})
		return
	}
	out, err := imaging.Overlay(img, snap.Render)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to render overlay")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "render failed"})
		return
	}

	contentType := "image/png"
	if format == imaging.FormatWebP {
		contentType = "image/webp"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := imaging.Encode(w, out, format); err != nil {
		s.log.Error().Err(err).Msg("failed to write image")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  s.version,
		"sessions": s.sessions.len(),
		"images":   s.images.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
