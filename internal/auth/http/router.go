package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lumenlabs/membergate/internal/auth/service"
	"github.com/lumenlabs/membergate/internal/auth/store"
	"github.com/lumenlabs/membergate/pkg/httpx"
	"github.com/lumenlabs/membergate/pkg/jwtx"
	"github.com/lumenlabs/membergate/pkg/slogx"

	_ "github.com/lumenlabs/membergate/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store

	TokenService    *service.TokenService
	RegisterService *service.RegistrationService
	LoginService    *service.LoginService
	OTPService      *service.OTPService
	TOTPService     *service.TOTPService
	AccountService  *service.AccountService
	RolesService    *service.RolesService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerPublic()
	r.registerVerification()
	r.registerSelf()
	r.registerTFA()
	r.registerUsers()
	r.registerRoles()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			MemberGate Authentication Service API
//	@version		0.1.0
//	@description	Identity, verification, and role-based access control for the platform.
//	@description
//	@description				Access tokens are HS256-signed JWTs carried as "Bearer {token}".
//	@description				Tokens prove identity only; permissions are resolved from the
//	@description				holder's role on every request.
//
//	@contact.name				Lumen Labs Platform Team
//	@contact.url				https://github.com/lumenlabs/membergate
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authn wraps a handler with bearer authentication.
func (r *Router) authn(h http.Handler, mws ...httpx.Middleware) http.Handler {
	chain := append([]httpx.Middleware{httpx.AuthnMiddleware(r.verifier)}, mws...)
	return httpx.Chain(h, chain...)
}

func (r *Router) registerPublic() {
	registerHandler := &RegisterHandler{
		RegisterService: r.RegisterService,
		TokenService:    r.TokenService,
		RolesService:    r.RolesService,
	}
	// Registration creates accounts; keep it strictly limited by IP.
	r.Mux.Handle("POST /v1/register",
		httpx.Chain(http.HandlerFunc(registerHandler.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	loginHandler := &LoginHandler{
		LoginService: r.LoginService,
		TokenService: r.TokenService,
	}
	// Authentication attempts are strictly limited by IP to slow
	// brute force.
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/login/tfa",
		httpx.Chain(http.HandlerFunc(loginHandler.HandleTFA),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	passwordHandler := &PasswordHandler{
		OTPService:     r.OTPService,
		TokenService:   r.TokenService,
		AccountService: r.AccountService,
		LoginService:   r.LoginService,
		Store:          r.store,
	}
	r.Mux.Handle("POST /v1/password/forgot",
		httpx.Chain(http.HandlerFunc(passwordHandler.HandleForgot),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/password/reset",
		httpx.Chain(http.HandlerFunc(passwordHandler.HandleReset),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/password/reset/tfa",
		httpx.Chain(http.HandlerFunc(passwordHandler.HandleResetTFA),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/me/password",
		r.authn(http.HandlerFunc(passwordHandler.HandleChange),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerVerification() {
	h := &VerifyHandler{OTPService: r.OTPService}

	r.Mux.Handle("POST /v1/verify/email/request",
		r.authn(http.HandlerFunc(h.HandleEmailRequest),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/verify/email",
		r.authn(http.HandlerFunc(h.HandleEmailVerify),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/verify/phone/request",
		r.authn(http.HandlerFunc(h.HandlePhoneRequest),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/verify/phone",
		r.authn(http.HandlerFunc(h.HandlePhoneVerify),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSelf() {
	h := &MeHandler{AccountService: r.AccountService, RolesService: r.RolesService, Store: r.store}

	r.Mux.Handle("GET /v1/me",
		r.authn(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerTFA() {
	h := &TFAHandler{TOTPService: r.TOTPService, Store: r.store}

	r.Mux.Handle("POST /v1/tfa",
		r.authn(http.HandlerFunc(h.HandleEnable),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/tfa",
		r.authn(http.HandlerFunc(h.HandleDisable),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/tfa/totp/enroll",
		r.authn(http.HandlerFunc(h.HandleEnroll),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/tfa/totp/activate",
		r.authn(http.HandlerFunc(h.HandleActivate),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/tfa/totp",
		r.authn(http.HandlerFunc(h.HandleRemove),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{
		AccountService:  r.AccountService,
		RegisterService: r.RegisterService,
		RolesService:    r.RolesService,
		Store:           r.store,
	}

	limit := httpx.RateLimitByUser(httpx.ModerateLimit)

	r.Mux.Handle("GET /v1/users",
		r.authn(http.HandlerFunc(h.HandleList),
			httpx.RequirePermission(r.RolesService, "users:read"), limit))
	r.Mux.Handle("GET /v1/users/{id}",
		r.authn(http.HandlerFunc(h.HandleGet),
			httpx.RequirePermission(r.RolesService, "users:read"), limit))
	r.Mux.Handle("POST /v1/users",
		r.authn(http.HandlerFunc(h.HandleCreate),
			httpx.RequirePermission(r.RolesService, "users:create"), limit))
	r.Mux.Handle("PATCH /v1/users/{id}",
		r.authn(http.HandlerFunc(h.HandleUpdate),
			httpx.RequirePermission(r.RolesService, "users:update"), limit))
	r.Mux.Handle("POST /v1/users/{id}/block",
		r.authn(http.HandlerFunc(h.HandleBlock),
			httpx.RequirePermission(r.RolesService, "users:block"), limit))
	r.Mux.Handle("DELETE /v1/users/{id}/block",
		r.authn(http.HandlerFunc(h.HandleUnblock),
			httpx.RequirePermission(r.RolesService, "users:block"), limit))
	r.Mux.Handle("DELETE /v1/users/{id}",
		r.authn(http.HandlerFunc(h.HandleDelete),
			httpx.RequirePermission(r.RolesService, "users:delete"), limit))
}

func (r *Router) registerRoles() {
	h := &RolesHandler{RolesService: r.RolesService}

	limit := httpx.RateLimitByUser(httpx.ModerateLimit)

	r.Mux.Handle("GET /v1/roles",
		r.authn(http.HandlerFunc(h.HandleList),
			httpx.RequirePermission(r.RolesService, "roles:read"), limit))
	r.Mux.Handle("POST /v1/roles",
		r.authn(http.HandlerFunc(h.HandleCreate),
			httpx.RequirePermission(r.RolesService, "roles:manage"), limit))
	r.Mux.Handle("PUT /v1/roles/{name}/permissions",
		r.authn(http.HandlerFunc(h.HandleReplacePermissions),
			httpx.RequirePermission(r.RolesService, "roles:manage"), limit))
	r.Mux.Handle("GET /v1/permissions",
		r.authn(http.HandlerFunc(h.HandleListPermissions),
			httpx.RequirePermission(r.RolesService, "roles:read"), limit))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
