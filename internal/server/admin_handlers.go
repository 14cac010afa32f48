package server

import (
	"strings"

	"muster/internal/middleware"
	"muster/internal/models"
	"muster/internal/service"

	"github.com/gofiber/fiber/v2"
)

// RoleRequest is the body of the role grant and revoke endpoints.
type RoleRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// PermissionRequired returns middleware that rejects users whose roles do
// not grant permission. Must be placed after AuthRequired.
func (s *Server) PermissionRequired(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := s.actor(c)
		if err != nil {
			return nil
		}
		if !s.gate.Can(actor, permission) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewUnauthorizedError("Insufficient permissions"))
		}
		return c.Next()
	}
}

// GetUsers handles GET /api/admin/users
func (s *Server) GetUsers(c *fiber.Ctx) error {
	users, err := s.roleService.Users(c.UserContext())
	if err != nil {
		return respond(c, models.NewInternalError(err))
	}
	return c.JSON(users)
}

func (s *Server) parseRoleRequest(c *fiber.Ctx) (RoleRequest, error) {
	var req RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return req, models.NewValidationError("Invalid request body")
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))
	if req.Email == "" || req.Role == "" {
		return req, models.NewValidationError("Email and role are required")
	}
	return req, nil
}

// GrantRole handles POST /api/admin/roles/grant
func (s *Server) GrantRole(c *fiber.Ctx) error {
	req, err := s.parseRoleRequest(c)
	if err != nil {
		return respond(c, err)
	}
	if err := s.roleService.Grant(c.UserContext(), req.Email, req.Role); err != nil {
		return respond(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "role granted", "email", req.Email, "role", req.Role)
	return c.JSON(fiber.Map{"message": "Role " + req.Role + " granted to " + req.Email})
}

// RevokeRole handles POST /api/admin/roles/revoke
func (s *Server) RevokeRole(c *fiber.Ctx) error {
	req, err := s.parseRoleRequest(c)
	if err != nil {
		return respond(c, err)
	}
	if err := s.roleService.Revoke(c.UserContext(), req.Email, req.Role); err != nil {
		return respond(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "role revoked", "email", req.Email, "role", req.Role)
	return c.JSON(fiber.Map{"message": "Role " + req.Role + " revoked from " + req.Email})
}

// GetFeatureFlags returns the evaluated feature flags for the current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	return c.JSON(fiber.Map{
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}

func parseLeagueRequest(c *fiber.Ctx) (service.LeagueInput, error) {
	var in service.LeagueInput
	if err := c.BodyParser(&in); err != nil {
		return in, models.NewValidationError("Invalid request body")
	}
	return in, nil
}

// CreateLeague handles POST /api/admin/leagues
// @Summary Create league
// @Description Create a league and optionally assign its owner. A user owns at most one league.
// @Tags admin
// @Accept json
// @Produce json
// @Param body body service.LeagueInput true "League"
// @Success 201 {object} models.League
// @Security BearerAuth
// @Router /admin/leagues [post]
func (s *Server) CreateLeague(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	in, err := parseLeagueRequest(c)
	if err != nil {
		return respond(c, err)
	}
	league, err := s.leagueService.Create(c.UserContext(), actor, in)
	if err != nil {
		return respond(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "league created", "league", league.Slug)
	return c.Status(fiber.StatusCreated).JSON(league)
}

// UpdateLeague handles PUT /api/admin/leagues/:league
// @Summary Update league
// @Description Rename a league or change its owner. A null user_id removes the owner.
// @Tags admin
// @Accept json
// @Produce json
// @Param league path string true "League slug"
// @Param body body service.LeagueInput true "League"
// @Success 200 {object} models.League
// @Security BearerAuth
// @Router /admin/leagues/{league} [put]
func (s *Server) UpdateLeague(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	in, err := parseLeagueRequest(c)
	if err != nil {
		return respond(c, err)
	}
	league, err := s.leagueService.Update(c.UserContext(), actor, c.Params("league"), in)
	if err != nil {
		return respond(c, err)
	}
	middleware.Logger.InfoContext(c.UserContext(), "league updated", "league", league.Slug)
	return c.JSON(league)
}

// GetOwnerCandidates handles GET /api/admin/leagues/owner-candidates and
// GET /api/admin/leagues/:league/owner-candidates
func (s *Server) GetOwnerCandidates(c *fiber.Ctx) error {
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	users, err := s.leagueService.OwnerCandidates(c.UserContext(), actor, c.Params("league"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(fiber.Map{"users": users})
}
