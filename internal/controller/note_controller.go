package controller

import (
	"strconv"
	"time"

	"noteguard-be/internal/dto"
	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/internal/pkg/serverutils"
	"noteguard-be/internal/service"
	"noteguard-be/pkg/clock"

	"github.com/gofiber/fiber/v2"
)

const noteNotFound = "note not found"

type INoteController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	Create(ctx *fiber.Ctx) error
	CreateWithExpiration(ctx *fiber.Ctx) error
	ListMine(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	IssueShare(ctx *fiber.Ctx) error
	RevokeShare(ctx *fiber.Ctx) error
	ResolveShare(ctx *fiber.Ctx) error
}

type noteController struct {
	noteService  service.INoteService
	shareService service.IShareService
}

func NewNoteController(noteService service.INoteService, shareService service.IShareService) INoteController {
	return &noteController{
		noteService:  noteService,
		shareService: shareService,
	}
}

func (c *noteController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	// Public. Must stay ahead of the protected group.
	r.Get("/notes/share/:token", c.ResolveShare)

	h := r.Group("/notes", jwtMiddleware)
	h.Post("", c.Create)
	h.Post("/with-expiration", c.CreateWithExpiration)
	h.Get("/user", c.ListMine)
	h.Get("/:id", c.Show)
	h.Put("/:id", c.Update)
	h.Delete("/:id", c.Delete)
	h.Post("/:id/share", c.IssueShare)
	h.Delete("/:id/share", c.RevokeShare)
}

func (c *noteController) Create(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noteService.Create(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Note created", res))
}

// CreateWithExpiration takes the TTL from ?expirationHours, overriding any
// expiration_hours in the body.
func (c *noteController) CreateWithExpiration(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	hours, err := queryHours(ctx, "expirationHours", 0)
	if err != nil {
		return err
	}
	if hours == 0 {
		return apperror.Validation("expirationHours is required")
	}

	var req dto.CreateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	req.ExpirationHours = &hours
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noteService.Create(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Note created", res))
}

func (c *noteController) ListMine(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	res, err := c.noteService.ListForOwner(ctx.UserContext(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Notes", res))
}

func (c *noteController) Show(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParseUUIDParam(ctx, "id", noteNotFound)
	if err != nil {
		return err
	}

	res, err := c.noteService.Show(ctx.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Note", res))
}

func (c *noteController) Update(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParseUUIDParam(ctx, "id", noteNotFound)
	if err != nil {
		return err
	}

	var req dto.UpdateNoteRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation("invalid request body")
	}
	req.Id = id
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.noteService.Update(ctx.UserContext(), actor, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Note updated", res))
}

func (c *noteController) Delete(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParseUUIDParam(ctx, "id", noteNotFound)
	if err != nil {
		return err
	}

	if err := c.noteService.Delete(ctx.UserContext(), actor, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Note deleted", nil))
}

func (c *noteController) IssueShare(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParseUUIDParam(ctx, "id", noteNotFound)
	if err != nil {
		return err
	}

	defaultHours := int(c.shareService.DefaultTTL() / time.Hour)
	hours, err := queryHours(ctx, "expirationHours", defaultHours)
	if err != nil {
		return err
	}

	ttl, ok := clock.Hours(hours)
	if !ok {
		return apperror.Validation("expirationHours is out of range")
	}

	res, err := c.shareService.Issue(ctx.UserContext(), actor, id, ttl)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Share link created", res))
}

func (c *noteController) RevokeShare(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParseUUIDParam(ctx, "id", noteNotFound)
	if err != nil {
		return err
	}

	if err := c.shareService.Revoke(ctx.UserContext(), actor, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Share link revoked", nil))
}

func (c *noteController) ResolveShare(ctx *fiber.Ctx) error {
	res, err := c.shareService.Resolve(ctx.UserContext(), ctx.Params("token"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Shared note", res))
}

// queryHours reads a positive hour count from the query string, returning
// fallback when the parameter is absent.
func queryHours(ctx *fiber.Ctx, name string, fallback int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		return 0, apperror.Validation(name + " must be a positive integer")
	}
	if int64(hours) > clock.MaxHours {
		return 0, apperror.Validation(name + " is out of range")
	}
	return hours, nil
}
