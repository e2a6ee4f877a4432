package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	appaccounts "github.com/bryanwahyu/risklens/internal/application/accounts"
	appanalysis "github.com/bryanwahyu/risklens/internal/application/analysis"
	appprojects "github.com/bryanwahyu/risklens/internal/application/projects"
	domaccounts "github.com/bryanwahyu/risklens/internal/domain/accounts"
	domai "github.com/bryanwahyu/risklens/internal/domain/ai"
	domain "github.com/bryanwahyu/risklens/internal/domain/analysis"
	"github.com/bryanwahyu/risklens/internal/infra/storage"
	"github.com/bryanwahyu/risklens/internal/middleware"
)

const maxUploadBytes = 10 << 20

type Router struct {
	accountsSvc *appaccounts.Service
	analysisSvc *appanalysis.Service
	projectsSvc *appprojects.Service
	attachments *storage.Store // nil when no object store is configured
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewRouter(
	accountsSvc *appaccounts.Service,
	analysisSvc *appanalysis.Service,
	projectsSvc *appprojects.Service,
	attachments *storage.Store,
	jwtSecret []byte,
	tokenTTL time.Duration,
) http.Handler {
	r := &Router{
		accountsSvc: accountsSvc,
		analysisSvc: analysisSvc,
		projectsSvc: projectsSvc,
		attachments: attachments,
		jwtSecret:   jwtSecret,
		tokenTTL:    tokenTTL,
	}
	mux := chi.NewRouter()

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/auth/register", r.wrap(r.handleRegister))
		rt.Post("/auth/login", r.wrap(r.handleLogin))

		rt.Group(func(authed chi.Router) {
			authed.Use(middleware.SessionAuth(r.jwtSecret))

			authed.Get("/me", r.wrap(r.handleMe))
			authed.Post("/credits/purchase", r.wrap(r.handlePurchase))

			authed.Post("/analyses", r.wrap(r.handleAnalyze))
			authed.Get("/analyses", r.wrap(r.handleHistory))
			authed.Get("/analyses/{id}", r.wrap(r.handleGetProject))
			authed.Post("/analyses/{id}/visibility", r.wrap(r.handleVisibility))
			authed.Put("/analyses/{id}/milestones", r.wrap(r.handleMilestones))

			authed.Get("/community", r.wrap(r.handleCommunity))
			authed.Get("/clients/intel", r.wrap(r.handleClientIntel))

			authed.Post("/attachments", r.wrap(r.handleUpload))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
				http.Error(w, "not found", http.StatusNotFound)
			case errors.Is(err, domaccounts.ErrUserNotFound):
				http.Error(w, "user not found", http.StatusNotFound)
			case errors.Is(err, domain.ErrNotOwner):
				http.Error(w, "forbidden", http.StatusForbidden)
			case errors.Is(err, domaccounts.ErrEmailTaken):
				http.Error(w, "email already registered", http.StatusConflict)
			case errors.Is(err, domaccounts.ErrInvalidCredentials):
				http.Error(w, "invalid credentials", http.StatusUnauthorized)
			case errors.Is(err, domaccounts.ErrInsufficientCredits):
				http.Error(w, "insufficient credits", http.StatusPaymentRequired)
			case errors.Is(err, domai.ErrQuotaExceeded):
				http.Error(w, "ai quota exceeded", http.StatusTooManyRequests)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type sessionResponse struct {
	Token string            `json:"token"`
	User  *domaccounts.User `json:"user"`
}

// POST /v1/auth/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(w, "invalid JSON body")
	}
	if err := middleware.ValidateEmail(body.Email); err != nil {
		return badRequest(w, err.Error())
	}
	if err := middleware.ValidatePassword(body.Password); err != nil {
		return badRequest(w, err.Error())
	}

	user, err := r.accountsSvc.Register(req.Context(), middleware.SanitizeString(body.Name), body.Email, body.Password)
	if err != nil {
		return err
	}
	return r.writeSession(w, http.StatusCreated, user)
}

// POST /v1/auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(w, "invalid JSON body")
	}

	user, err := r.accountsSvc.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		return err
	}
	return r.writeSession(w, http.StatusOK, user)
}

func (r *Router) writeSession(w http.ResponseWriter, status int, user *domaccounts.User) error {
	token, err := middleware.NewSessionToken(r.jwtSecret, string(user.ID), user.Email, user.Name, r.tokenTTL)
	if err != nil {
		return fmt.Errorf("mint session token: %w", err)
	}
	return writeJSON(w, status, sessionResponse{Token: token, User: user})
}

// GET /v1/me
func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) error {
	user, err := r.accountsSvc.Profile(req.Context(), domaccounts.UserID(middleware.GetUserID(req.Context())))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, user)
}

// POST /v1/credits/purchase
// Body: {"pack": "basic|pro|agency"}
func (r *Router) handlePurchase(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Pack string `json:"pack"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(w, "invalid JSON body")
	}

	userID := domaccounts.UserID(middleware.GetUserID(req.Context()))
	added, err := r.accountsSvc.PurchaseCredits(req.Context(), userID, domaccounts.CreditPack(body.Pack))
	if err != nil {
		if errors.Is(err, domaccounts.ErrUserNotFound) {
			return err
		}
		return badRequest(w, err.Error())
	}

	user, err := r.accountsSvc.Profile(req.Context(), userID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"added":   added,
		"credits": user.Credits,
	})
}

type analyzeResponse struct {
	Success  bool                   `json:"success"`
	RecordID string                 `json:"record_id,omitempty"`
	Status   domain.Status          `json:"status,omitempty"`
	Result   *domain.RiskAssessment `json:"result,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

// POST /v1/analyses
// Body: {"input": {...}, "project_id": "<optional id for retry>"}
// Workflow failures come back as a structured response, never a bare 5xx:
// the record id is needed client-side to drive the retry.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Input     domain.ProjectInput `json:"input"`
		ProjectID string              `json:"project_id"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(w, "invalid JSON body")
	}
	if err := middleware.ValidateProjectTitle(body.Input.Title); err != nil {
		return badRequest(w, err.Error())
	}
	if body.ProjectID != "" {
		if err := middleware.ValidateRecordID(body.ProjectID); err != nil {
			return badRequest(w, err.Error())
		}
	}

	middleware.IncrementAnalyses()
	outcome, err := r.analysisSvc.Analyze(req.Context(), appanalysis.AnalyzeCommand{
		UserID:    middleware.GetUserID(req.Context()),
		ProjectID: body.ProjectID,
		Input:     body.Input,
	})
	if err != nil {
		// Ownership violations are request errors, not workflow outcomes.
		if errors.Is(err, domain.ErrNotOwner) {
			return err
		}
		middleware.IncrementAnalysesFailed()
		return writeJSON(w, http.StatusOK, analyzeResponse{
			Success:  false,
			RecordID: outcome.RecordID,
			Status:   outcome.Status,
			Result:   outcome.Assessment,
			Error:    workflowErrorMessage(err),
		})
	}

	middleware.IncrementAnalysesCompleted()
	return writeJSON(w, http.StatusOK, analyzeResponse{
		Success:  true,
		RecordID: outcome.RecordID,
		Status:   outcome.Status,
		Result:   outcome.Assessment,
	})
}

// workflowErrorMessage keeps the user-facing text stable for the known
// outcomes and passes provider messages through verbatim otherwise.
func workflowErrorMessage(err error) string {
	switch {
	case errors.Is(err, domaccounts.ErrUserNotFound):
		return "User not found."
	case errors.Is(err, domaccounts.ErrInsufficientCredits):
		return "Insufficient credits. Please purchase a pack."
	case errors.Is(err, domai.ErrUnconfigured):
		return "AI provider API key is missing on the server."
	case errors.Is(err, domai.ErrEmptyResult):
		return "No analysis generated."
	case errors.Is(err, domain.ErrPartialPersistence):
		return "Analysis completed but could not be saved. Please retry."
	default:
		return err.Error()
	}
}

// GET /v1/analyses
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	list, err := r.projectsSvc.History(req.Context(), middleware.GetUserID(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/analyses/{id}
func (r *Router) handleGetProject(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	rec, err := r.projectsSvc.Get(req.Context(), domain.RecordID(id), middleware.GetUserID(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// POST /v1/analyses/{id}/visibility
// Body: {"public": true|false}
func (r *Router) handleVisibility(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	var body struct {
		Public bool `json:"public"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest(w, "invalid JSON body")
	}
	if err := r.projectsSvc.SetVisibility(req.Context(), domain.RecordID(id), middleware.GetUserID(req.Context()), body.Public); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"id": id, "public": body.Public})
}

// PUT /v1/analyses/{id}/milestones
// Body: full replacement list; no partial patch.
func (r *Router) handleMilestones(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	var milestones []domain.Milestone
	if err := json.NewDecoder(req.Body).Decode(&milestones); err != nil {
		return badRequest(w, "invalid JSON body")
	}
	if err := r.projectsSvc.ReplaceMilestones(req.Context(), domain.RecordID(id), middleware.GetUserID(req.Context()), milestones); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, milestones)
}

// GET /v1/community
func (r *Router) handleCommunity(w http.ResponseWriter, req *http.Request) error {
	list, err := r.projectsSvc.Community(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /v1/clients/intel?name=
func (r *Router) handleClientIntel(w http.ResponseWriter, req *http.Request) error {
	name := middleware.SanitizeString(req.URL.Query().Get("name"))
	if name == "" {
		return badRequest(w, "name query parameter is required")
	}
	intel, err := r.projectsSvc.ClientIntel(req.Context(), name, middleware.GetUserID(req.Context()))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, intel)
}

// POST /v1/attachments (multipart). Stores the document and returns its URL;
// only the file name ever reaches the analysis prompt.
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	if r.attachments == nil {
		http.Error(w, "attachment storage is not configured", http.StatusServiceUnavailable)
		return nil
	}
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return badRequest(w, "invalid multipart body")
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequest(w, "file field is required")
	}
	defer file.Close()

	url, err := r.attachments.Upload(req.Context(), middleware.GetUserID(req.Context()), header.Filename, file, header.Size)
	if err != nil {
		return fmt.Errorf("upload attachment: %w", err)
	}
	return writeJSON(w, http.StatusCreated, map[string]string{
		"name": header.Filename,
		"url":  url,
	})
}

// badRequest writes a 400 and swallows the error so wrap does not double-write.
func badRequest(w http.ResponseWriter, msg string) error {
	http.Error(w, msg, http.StatusBadRequest)
	return nil
}
