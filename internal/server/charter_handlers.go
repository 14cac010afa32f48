package server

import (
	"github.com/gofiber/fiber/v2"
)

// CreateCharter handles POST /api/leagues/:league/charters
// @Summary Create charter
// @Description Upload a roster file and store it as a draft charter.
// @Tags charters
// @Accept multipart/form-data
// @Produce json
// @Param league path string true "League slug"
// @Param charter_type_id formData int true "Charter type"
// @Param name formData string false "Charter name, defaults to today's date"
// @Param csv formData file true "Roster file (csv, txt or xlsx)"
// @Success 201 {object} service.Result
// @Router /leagues/{league}/charters [post]
func (s *Server) CreateCharter(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	in, upload, err := charterForm(c)
	if err != nil {
		return respond(c, err)
	}

	res, err := s.charterService.Create(c.UserContext(), actor, c.Params("league"), in, upload)
	if err != nil {
		return respond(c, err)
	}
	return result(c, res, true)
}

// ShowCharter handles GET /api/leagues/:league/charters/:charter
// @Summary Show charter
// @Tags charters
// @Produce json
// @Param league path string true "League slug"
// @Param charter path string true "Charter slug"
// @Success 200 {object} service.CharterView
// @Router /leagues/{league}/charters/{charter} [get]
func (s *Server) ShowCharter(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	view, err := s.charterService.Show(c.UserContext(), actor, c.Params("league"), c.Params("charter"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(view)
}

// EditCharter handles GET /api/leagues/:league/charters/:charter/edit
func (s *Server) EditCharter(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	view, err := s.charterService.Edit(c.UserContext(), actor, c.Params("league"), c.Params("charter"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(view)
}

// UpdateCharter handles PUT /api/leagues/:league/charters/:charter
// @Summary Update charter
// @Description Rename or retype a charter and replace its roster.
// @Tags charters
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} service.Result
// @Router /leagues/{league}/charters/{charter} [put]
func (s *Server) UpdateCharter(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	in, upload, err := charterForm(c)
	if err != nil {
		return respond(c, err)
	}

	res, err := s.charterService.Update(c.UserContext(), actor, c.Params("league"), c.Params("charter"), in, upload)
	if err != nil {
		return respond(c, err)
	}
	return result(c, res, false)
}

// DeleteCharter handles DELETE /api/leagues/:league/charters/:charter
func (s *Server) DeleteCharter(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	res, err := s.charterService.Delete(c.UserContext(), actor, c.Params("league"), c.Params("charter"))
	if err != nil {
		return respond(c, err)
	}
	return result(c, res, false)
}

// RequestApproval handles POST /api/leagues/:league/charters/:charter/request-approval
// @Summary Request approval
// @Description Submit a draft charter for review by an operator.
// @Tags charters
// @Produce json
// @Success 200 {object} service.Result
// @Router /leagues/{league}/charters/{charter}/request-approval [post]
func (s *Server) RequestApproval(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}

	res, err := s.charterService.RequestApproval(c.UserContext(), actor, c.Params("league"), c.Params("charter"))
	if err != nil {
		return respond(c, err)
	}
	return result(c, res, false)
}

// ApproveCharter handles POST /api/leagues/:league/charters/:charter/approve
// @Summary Approve charter
// @Tags charters
// @Accept json
// @Produce json
// @Param body body object false "name and active_from"
// @Success 200 {object} service.Result
// @Router /leagues/{league}/charters/{charter}/approve [post]
func (s *Server) ApproveCharter(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	in, err := reviewForm(c)
	if err != nil {
		return respond(c, err)
	}

	res, err := s.charterService.Approve(c.UserContext(), actor, c.Params("league"), c.Params("charter"), in)
	if err != nil {
		return respond(c, err)
	}
	return result(c, res, false)
}

// RejectCharter handles POST /api/leagues/:league/charters/:charter/reject
func (s *Server) RejectCharter(c *fiber.Ctx) error {
	withLeague(c)
	actor, err := s.actor(c)
	if err != nil {
		return nil
	}
	in, err := reviewForm(c)
	if err != nil {
		return respond(c, err)
	}

	res, err := s.charterService.Reject(c.UserContext(), actor, c.Params("league"), c.Params("charter"), in)
	if err != nil {
		return respond(c, err)
	}
	return result(c, res, false)
}
