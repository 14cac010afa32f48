package server

import (
	"muster/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetLeagues handles GET /api/leagues
func (s *Server) GetLeagues(c *fiber.Ctx) error {
	leagues, err := s.leagueService.List(c.UserContext())
	if err != nil {
		return respond(c, models.NewInternalError(err))
	}
	return c.JSON(leagues)
}

// GetLeague handles GET /api/leagues/:league
// @Summary League charter overview
// @Description Current, upcoming, draft, pending and historical charters of a league.
// @Tags leagues
// @Produce json
// @Param league path string true "League slug"
// @Param charter_type_id query int false "Restrict to one charter type"
// @Success 200 {object} service.LeagueCharters
// @Router /leagues/{league} [get]
// @Router /leagues/{league}/charters [get]
func (s *Server) GetLeague(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	typeID := c.QueryInt("charter_type_id", 0)
	if typeID < 0 {
		return respond(c, models.NewFieldValidationError(map[string]string{
			"charter_type_id": "The selected charter type id is invalid.",
		}))
	}

	overview, err := s.leagueService.Charters(c.UserContext(), actor, c.Params("league"), uint(typeID))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(overview)
}

// GetCharterTypes handles GET /api/charter-types
func (s *Server) GetCharterTypes(c *fiber.Ctx) error {
	types, err := s.charterService.Types(c.UserContext())
	if err != nil {
		return respond(c, models.NewInternalError(err))
	}
	return c.JSON(types)
}
