package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"nexus/internal/model"
	"nexus/internal/reconcile"
	"nexus/internal/service"
)

// response wraps every successful payload.
type response struct {
	Data any `json:"data"`
}

// syncRequest is the optional body of the POST /sync endpoints. Content is
// honoured by POST /sync/:section only.
type syncRequest struct {
	Direction          model.Direction          `json:"direction"`
	DryRun             bool                     `json:"dry_run"`
	ConflictResolution model.ConflictResolution `json:"conflict_resolution"`
	Content            *string                  `json:"content"`
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, syncSvc service.SyncService) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	// /sync/health must be registered before /sync/:section.
	app.Get("/sync/health", SyncHealth(syncSvc))
	app.Get("/sync/health/:section", SectionHealth(syncSvc))

	app.Get("/sync", SyncSummary(syncSvc))
	app.Post("/sync", ReconcileAll(syncSvc))
	app.Get("/sync/:section", SectionContent(syncSvc))
	app.Post("/sync/:section", ReconcileSection(syncSvc))

	app.Get("/manual/sections", ManualSections(syncSvc))
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// SyncSummary godoc
// @Summary Sync state of every section
// @Tags sync
// @Produce json
// @Success 200 {object} response{data=service.SyncSummary}
// @Router /sync [get]
func SyncSummary(svc service.SyncService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Summary(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(response{Data: res})
	}
}

// ReconcileAll godoc
// @Summary Reconcile every section
// @Tags sync
// @Accept json
// @Produce json
// @Param body body syncRequest false "direction, dry_run and conflict_resolution"
// @Success 200 {object} response{data=model.AllResult}
// @Failure 400 {object} errorPayload
// @Router /sync [post]
func ReconcileAll(svc service.SyncService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts, err := parseSyncRequest(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.ReconcileAll(c.UserContext(), opts)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(response{Data: res})
	}
}

// ReconcileSection godoc
// @Summary Reconcile one section
// @Tags sync
// @Accept json
// @Produce json
// @Param section path string true "section name"
// @Param body body syncRequest false "direction, dry_run, conflict_resolution and optional document content"
// @Success 200 {object} response{data=model.SyncResult}
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /sync/{section} [post]
func ReconcileSection(svc service.SyncService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		opts, err := parseSyncRequest(c)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		res, err := svc.Reconcile(c.UserContext(), c.Params("section"), opts)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(response{Data: res})
	}
}

// SectionContent godoc
// @Summary Current document of a section
// @Tags sync
// @Produce json
// @Param section path string true "section name"
// @Success 200 {object} response{data=service.SectionContent}
// @Failure 404 {object} errorPayload
// @Router /sync/{section} [get]
func SectionContent(svc service.SyncService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Content(c.UserContext(), c.Params("section"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(response{Data: res})
	}
}

// SyncHealth godoc
// @Summary Staleness of every section
// @Tags health
// @Produce json
// @Success 200 {object} response{data=health.Report}
// @Router /sync/health [get]
func SyncHealth(svc service.SyncService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Health(c.UserContext())
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(response{Data: res})
	}
}

// SectionHealth godoc
// @Summary Staleness of one section
// @Tags health
// @Produce json
// @Param section path string true "section name"
// @Success 200 {object} response{data=health.SectionHealth}
// @Failure 404 {object} errorPayload
// @Router /sync/health/{section} [get]
func SectionHealth(svc service.SyncService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.SectionHealth(c.UserContext(), c.Params("section"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(response{Data: res})
	}
}

// ManualSections godoc
// @Summary Operations manual sections
// @Tags manual
// @Produce json
// @Param q query string false "case-insensitive filter"
// @Success 200 {object} response{data=service.ManualResult}
// @Failure 404 {object} errorPayload
// @Router /manual/sections [get]
func ManualSections(svc service.SyncService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		res, err := svc.Manual(c.UserContext(), c.Query("q"))
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(response{Data: res})
	}
}

func parseSyncRequest(c *fiber.Ctx) (reconcile.Options, error) {
	var req syncRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return reconcile.Options{}, err
		}
	}
	return reconcile.Options{
		Direction:          req.Direction,
		DryRun:             req.DryRun,
		ConflictResolution: req.ConflictResolution,
		Content:            req.Content,
	}, nil
}
