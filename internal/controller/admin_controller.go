package controller

import (
	"fmt"
	"strconv"

	"noteguard-be/internal/pkg/apperror"
	"noteguard-be/internal/pkg/serverutils"
	"noteguard-be/internal/repository/contract"
	"noteguard-be/internal/service"
	internalWS "noteguard-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler)
	GetAllUsers(ctx *fiber.Ctx) error
	GetAllNotes(ctx *fiber.Ctx) error
	DeleteUser(ctx *fiber.Ctx) error
	DeleteNote(ctx *fiber.Ctx) error
	GetUserStats(ctx *fiber.Ctx) error
	GetNoteStats(ctx *fiber.Ctx) error
	GetDashboardStats(ctx *fiber.Ctx) error
	RunCleanup(ctx *fiber.Ctx) error
	GetCleanupStats(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	GetLogDetail(ctx *fiber.Ctx) error
	StreamEvents(conn *websocket.Conn)
}

type adminController struct {
	service        service.IAdminService
	noteService    service.INoteService
	cleanupService service.ICleanupService
	hub            *internalWS.Hub
}

func NewAdminController(
	service service.IAdminService,
	noteService service.INoteService,
	cleanupService service.ICleanupService,
	hub *internalWS.Hub,
) IAdminController {
	return &adminController{
		service:        service,
		noteService:    noteService,
		cleanupService: cleanupService,
		hub:            hub,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router, jwtMiddleware fiber.Handler) {
	h := r.Group("/admin", jwtMiddleware, serverutils.AdminOnly)

	// Users
	h.Get("/users", c.GetAllUsers)
	h.Delete("/users/:id", c.DeleteUser)

	// Notes
	h.Get("/notes", c.GetAllNotes)
	h.Delete("/notes/:id", c.DeleteNote)

	// Statistics
	h.Get("/stats/users", c.GetUserStats)
	h.Get("/stats/notes", c.GetNoteStats)
	h.Get("/dashboard", c.GetDashboardStats)

	// Cleanup
	h.Post("/cleanup", c.RunCleanup)
	h.Get("/cleanup/stats", c.GetCleanupStats)

	// Logs
	h.Get("/logs", c.GetLogs)
	h.Get("/logs/:id", c.GetLogDetail)

	// Live lifecycle events
	h.Get("/events/ws", requireUpgrade, websocket.New(c.StreamEvents))
}

func requireUpgrade(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}
	return ctx.Next()
}

func (c *adminController) GetAllUsers(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	users, err := c.service.ListUsers(ctx.UserContext(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User list", users))
}

func (c *adminController) GetAllNotes(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	limit, err := queryInt(ctx, "limit", 0)
	if err != nil {
		return err
	}
	offset, err := queryInt(ctx, "offset", 0)
	if err != nil {
		return err
	}

	notes, err := c.service.ListNotes(ctx.UserContext(), actor, contract.Page{Limit: limit, Offset: offset})
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Note list", notes))
}

func (c *adminController) DeleteUser(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	id, err := serverutils.ParseUUIDParam(ctx, "id", "user not found")
	if err != nil {
		return err
	}

	if err := c.service.DeleteUser(ctx.UserContext(), actor, id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("User deleted", nil))
}

func (c *adminController) DeleteNote(ctx *fiber.Ctx) error {
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

func (c *adminController) GetUserStats(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	stats, err := c.service.UserStats(ctx.UserContext(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("User stats", stats))
}

func (c *adminController) GetNoteStats(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	stats, err := c.service.NoteStats(ctx.UserContext(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Note stats", stats))
}

func (c *adminController) GetDashboardStats(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	stats, err := c.service.Dashboard(ctx.UserContext(), actor)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Dashboard stats", stats))
}

func (c *adminController) RunCleanup(ctx *fiber.Ctx) error {
	res, err := c.cleanupService.Sweep(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Cleanup completed", res))
}

func (c *adminController) GetCleanupStats(ctx *fiber.Ctx) error {
	hours, err := queryHours(ctx, "hours", 24)
	if err != nil {
		return err
	}

	res, err := c.cleanupService.ExpiringWithin(ctx.UserContext(), hours)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Cleanup stats", res))
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}
	limit, err := queryInt(ctx, "limit", 50)
	if err != nil {
		return err
	}
	offset, err := queryInt(ctx, "offset", 0)
	if err != nil {
		return err
	}

	logs, err := c.service.GetLogs(ctx.UserContext(), actor, ctx.Query("level", ""), limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *adminController) GetLogDetail(ctx *fiber.Ctx) error {
	actor, err := serverutils.ActorFromCtx(ctx)
	if err != nil {
		return err
	}

	// Log ids are content hashes, not uuids.
	entry, err := c.service.GetLogDetail(ctx.UserContext(), actor, ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Log detail", entry))
}

func queryInt(ctx *fiber.Ctx, name string, fallback int) (int, error) {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, apperror.Validation(name + " must be a non-negative integer")
	}
	return v, nil
}

// StreamEvents pushes every lifecycle event to the connected admin as the
// JSON envelope used on the event bus.
func (c *adminController) StreamEvents(conn *websocket.Conn) {
	userId, _ := uuid.Parse(fmt.Sprint(conn.Locals(serverutils.LocalUserId)))
	internalWS.ServeWs(c.hub, conn, userId)
}
