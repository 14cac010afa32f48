package server

import (
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"muster/internal/access"
	"muster/internal/middleware"
	"muster/internal/models"
	"muster/internal/service"
	"muster/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respond writes err with the status its code maps to. Internal errors are
// logged with the request context.
func respond(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			"method", c.Method(), "path", c.Path(), "error", err)
	}
	return models.RespondWithError(c, status, err)
}

// actor resolves the user behind the request. Requests without a token get
// the anonymous actor.
func (s *Server) actor(c *fiber.Ctx) (access.Actor, error) {
	userID, _ := c.Locals("userID").(uint)
	a, err := s.authService.Actor(c.UserContext(), userID)
	if err != nil {
		_ = respond(c, err)
		return access.Actor{}, errResponseWritten
	}
	return a, nil
}

// withLeague tags the request context with the league slug for logging.
func withLeague(c *fiber.Ctx) {
	c.SetUserContext(middleware.WithLeague(c.UserContext(), c.Params("league")))
}

// result answers a lifecycle operation. Unchanged results are still a 200,
// the message says why nothing happened.
func result(c *fiber.Ctx, res *service.Result, created bool) error {
	status := fiber.StatusOK
	if created && res.Changed {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(res)
}

// charterForm reads the multipart charter form. A missing file leaves the
// upload nil so that validation reports it.
func charterForm(c *fiber.Ctx) (service.CharterInput, *service.Upload, error) {
	in := service.CharterInput{Name: c.FormValue("name")}

	if raw := strings.TrimSpace(c.FormValue("charter_type_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return in, nil, models.NewFieldValidationError(map[string]string{
				"charter_type_id": "The selected charter type id is invalid.",
			})
		}
		typeID := uint(id)
		in.CharterTypeID = &typeID
	}

	fh, err := c.FormFile("csv")
	if err != nil {
		return in, nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return in, nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	// BodyLimit bounds the file, so it is read whole before parsing.
	data, err := io.ReadAll(f)
	if err != nil {
		return in, nil, models.NewInternalError(err)
	}
	return in, &service.Upload{Filename: fh.Filename, Reader: bytes.NewReader(data)}, nil
}

// reviewForm reads the optional name and active_from of an approval decision.
func reviewForm(c *fiber.Ctx) (service.CharterInput, error) {
	var body struct {
		Name       string `json:"name" form:"name"`
		ActiveFrom string `json:"active_from" form:"active_from"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return service.CharterInput{}, models.NewValidationError("Invalid request body")
		}
	}

	activeFrom, err := validation.ParseActiveFrom(body.ActiveFrom)
	if err != nil {
		return service.CharterInput{}, models.NewFieldValidationError(map[string]string{
			"active_from": err.Error(),
		})
	}
	return service.CharterInput{Name: body.Name, ActiveFrom: activeFrom}, nil
}
