package httpserver

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mealscan/entitled/internal/identity"
	"github.com/mealscan/entitled/internal/repository"
	"github.com/mealscan/entitled/internal/service"
)

// Server wires the feature-gate API and the admin surface into a gin engine.
type Server struct {
	gate     *service.Gate
	resolver *service.Resolver
	betas    repository.BetaRepository
	grants   repository.GrantRepository
	log      *zap.Logger
}

// New constructs the HTTP server facade.
func New(
	gate *service.Gate,
	resolver *service.Resolver,
	betas repository.BetaRepository,
	grants repository.GrantRepository,
	log *zap.Logger,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{gate: gate, resolver: resolver, betas: betas, grants: grants, log: log}
}

// Router builds the route tree. adminKeyHash guards the admin group; an
// empty hash disables those routes entirely.
func (s *Server) Router(provider *identity.Provider, adminKeyHash []byte) *gin.Engine {
	r := gin.New()
	r.Use(Recover(s.log), Logging(s.log))

	v1 := r.Group("/v1", Authenticate(provider))
	{
		v1.GET("/entitlement", s.handleEntitlementGET)
		v1.POST("/refresh", s.handleRefreshPOST)
		v1.GET("/features/:feature", s.handleFeatureGET)
		v1.POST("/scans", s.handleScanPOST)
		v1.GET("/scans/remaining", s.handleScansRemainingGET)
	}

	if len(adminKeyHash) > 0 {
		admin := r.Group("/v1/admin", AdminAuth(adminKeyHash))
		{
			admin.POST("/grants", s.handleGrantPOST)
			admin.DELETE("/grants/:user_id", s.handleGrantDELETE)
			admin.POST("/testers", s.handleTesterPOST)
		}
	}

	return r
}
