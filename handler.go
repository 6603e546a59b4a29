package consoleauth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/TheRakeshPurohit/consoleauth/instrumentation"
	"github.com/TheRakeshPurohit/consoleauth/providers"
	"github.com/TheRakeshPurohit/consoleauth/security"
)

// LoginHandler drives one complete login per request. Mounted at the
// console's /auth/login path it serves both halves of the dance: a request
// without an authorization code is redirected to the provider, and the
// provider's callback (carrying ?code=) is verified, turned into an
// Identity, and written to the session layer.
//
// The handler keeps no state between requests; concurrent logins only share
// the immutable provider configuration.
type LoginHandler struct {
	provider   providers.Provider
	sessions   SessionWriter
	homeURL    string
	logger     *slog.Logger
	auditor    *security.Auditor
	limiter    *security.RateLimiter
	trustProxy bool
	inst       *instrumentation.Instrumentation
	tracer     trace.Tracer
	onError    func(w http.ResponseWriter, r *http.Request, err error)
}

// NewLoginHandler creates the login handler from its configuration.
func NewLoginHandler(cfg Config) (*LoginHandler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	inst := cfg.Instrumentation
	if inst == nil {
		inst = instrumentation.Disabled()
	}
	onError := cfg.OnError
	if onError == nil {
		onError = defaultOnError
	}

	return &LoginHandler{
		provider:   cfg.Provider,
		sessions:   cfg.Sessions,
		homeURL:    cfg.HomeURL,
		logger:     logger,
		auditor:    cfg.Auditor,
		limiter:    cfg.RateLimiter,
		trustProxy: cfg.TrustProxyHeaders,
		inst:       inst,
		tracer:     inst.Tracer("login"),
		onError:    onError,
	}, nil
}

// Summary returns the provider's configuration summary. Consoles embed it
// in the payload their frontend loads before rendering the login button.
func (h *LoginHandler) Summary() providers.Summary {
	return h.provider.Summary()
}

// ServeHTTP dispatches one login request to exactly one branch: verification
// when the provider called back with a code, the provider redirect otherwise.
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Both branches carry credentials in the URL, so nothing here may be
	// cached by the browser or an intermediary.
	security.SetLoginResponseHeaders(w)

	clientIP := security.ClientIP(r, h.trustProxy)
	providerName := h.provider.Name()

	if h.limiter != nil && !h.limiter.Allow(clientIP) {
		h.logger.Warn("Login rate limit exceeded", "provider", providerName, "ip", clientIP)
		if h.auditor != nil {
			h.auditor.LogRateLimitExceeded(providerName, clientIP)
		}
		h.inst.Metrics().RecordLoginFailure(r.Context(), providerName, instrumentation.StageRateLimit)
		http.Error(w, "Too many login attempts. Please try again later.", http.StatusTooManyRequests)
		return
	}

	// Only a non-empty code switches to verification. The retired token
	// parameter is not a trigger; requests carrying it alone start a fresh
	// dance like any other.
	if code := r.URL.Query().Get("code"); code != "" {
		h.verifyCode(w, r, code, clientIP)
		return
	}
	h.redirectToProvider(w, r, clientIP)
}

// redirectToProvider starts the dance by sending the visitor to the
// provider's authorization endpoint. A redirect query parameter names where
// in the console the visitor should land afterwards; it rides the OAuth2
// state parameter through the provider and back.
func (h *LoginHandler) redirectToProvider(w http.ResponseWriter, r *http.Request, clientIP string) {
	startTime := time.Now()
	ctx := r.Context()
	providerName := h.provider.Name()

	h.inst.Metrics().RecordLoginRequest(ctx, providerName, instrumentation.BranchRedirect)

	target := r.URL.Query().Get("redirect")
	loginURL, err := h.provider.LoginURL(ctx, target)
	if err != nil {
		h.fail(ctx, w, r, nil, clientIP, instrumentation.StageLoginURL, "building authorization URL failed", err)
		return
	}

	if h.auditor != nil {
		h.auditor.LogLoginRedirected(providerName, clientIP)
	}
	h.inst.Metrics().RecordLoginDuration(ctx, providerName, instrumentation.BranchRedirect,
		float64(time.Since(startTime).Milliseconds()))
	h.logger.Debug("Redirecting to provider",
		"provider", providerName,
		"has_redirect_target", target != "")

	http.Redirect(w, r, loginURL, http.StatusFound)
}

// verifyCode finishes the dance: exchange the code, resolve the identity,
// write the session, and send the visitor home. Failure at any step aborts
// the remaining ones and leaves the session untouched.
func (h *LoginHandler) verifyCode(w http.ResponseWriter, r *http.Request, code, clientIP string) {
	startTime := time.Now()
	providerName := h.provider.Name()

	target, hasTarget := providers.DecodeRedirectState(r.URL.Query().Get("state"))

	ctx, span := h.tracer.Start(r.Context(), instrumentation.SpanLoginVerify, trace.WithAttributes(
		attribute.String(instrumentation.AttrProvider, providerName),
		attribute.Bool(instrumentation.AttrRedirectTarget, hasTarget),
	))
	defer span.End()

	h.inst.Metrics().RecordLoginRequest(ctx, providerName, instrumentation.BranchVerify)

	token, err := h.provider.ExchangeCode(ctx, code)
	if err != nil {
		h.fail(ctx, w, r, span, clientIP, instrumentation.StageExchange, "code exchange failed", err)
		return
	}
	span.AddEvent(instrumentation.EventCodeExchanged)

	identity, err := h.provider.FetchIdentity(ctx, token)
	if err != nil {
		h.fail(ctx, w, r, span, clientIP, instrumentation.StageIdentity, "identity fetch failed", err)
		return
	}
	span.AddEvent(instrumentation.EventIdentityFetched)

	if err := h.sessions.WriteIdentity(w, r, identity); err != nil {
		h.fail(ctx, w, r, span, clientIP, instrumentation.StageSessionWrite, "session write failed", err)
		return
	}
	span.AddEvent(instrumentation.EventSessionWritten)
	h.inst.Metrics().RecordSessionWrite(ctx, providerName)

	if h.auditor != nil {
		h.auditor.LogLoginSucceeded(providerName, identity.Username, clientIP)
		h.auditor.LogSessionCreated(providerName, identity.Username, clientIP)
	}
	h.inst.Metrics().RecordLoginDuration(ctx, providerName, instrumentation.BranchVerify,
		float64(time.Since(startTime).Milliseconds()))
	instrumentation.SetSpanSuccess(span)

	h.logger.Info("Login succeeded",
		"provider", providerName,
		"username", identity.Username,
		"groups", len(identity.Groups))

	// The frontend routes on the fragment, so the recovered target goes
	// after a # rather than into the path.
	location := h.homeURL
	if hasTarget {
		location += "#" + target
	}
	http.Redirect(w, r, location, http.StatusFound)
}

// fail logs, audits, and counts a login failure, then hands the response to
// the failure hook. span may be nil on the redirect branch.
func (h *LoginHandler) fail(ctx context.Context, w http.ResponseWriter, r *http.Request, span trace.Span, clientIP, stage, reason string, err error) {
	providerName := h.provider.Name()

	h.logger.Error("Login failed",
		"provider", providerName,
		"stage", stage,
		"ip", clientIP,
		"error", err)
	if h.auditor != nil {
		h.auditor.LogLoginFailed(providerName, clientIP, reason)
	}
	h.inst.Metrics().RecordLoginFailure(ctx, providerName, stage)
	if span != nil {
		span.SetAttributes(attribute.String(instrumentation.AttrStage, stage))
	}
	instrumentation.RecordError(span, err)

	h.onError(w, r, err)
}

// defaultOnError hides the failure details from the visitor; they have
// already been logged and audited by the time the hook runs.
func defaultOnError(w http.ResponseWriter, _ *http.Request, _ error) {
	http.Error(w, "Authentication failed", http.StatusForbidden)
}
