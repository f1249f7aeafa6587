package controller

import (
	"errors"

	"ai-studymate-be/internal/dto"
	"ai-studymate-be/internal/pkg/serverutils"
	"ai-studymate-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IReportController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	GetAll(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Export(ctx *fiber.Ctx) error
	Narration(ctx *fiber.Ctx) error
	Related(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type reportController struct {
	reportService service.IReportService
}

func NewReportController(reportService service.IReportService) IReportController {
	return &reportController{
		reportService: reportService,
	}
}

func (c *reportController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/report/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Generate)
	h.Get("", c.GetAll)
	h.Get(":id", c.Show)
	h.Get(":id/export", c.Export)
	h.Get(":id/narration", c.Narration)
	h.Get(":id/related", c.Related)
	h.Delete(":id", c.Delete)
}

// respondLimit turns the daily cap error into a 429 instead of a generic 500.
func respondLimit(ctx *fiber.Ctx, err error) (bool, error) {
	var limitErr *dto.LimitExceededError
	if errors.As(err, &limitErr) {
		return true, ctx.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"success":  false,
			"code":     fiber.StatusTooManyRequests,
			"message":  limitErr.Error(),
			"reset_at": limitErr.ResetAt,
		})
	}
	return false, nil
}

func (c *reportController) Generate(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.GenerateReportRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.reportService.Generate(ctx.Context(), userId, &req)
	if err != nil {
		if handled, respErr := respondLimit(ctx, err); handled {
			return respErr
		}
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate report", res))
}

func (c *reportController) GetAll(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	res, err := c.reportService.GetAll(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get reports", res))
}

func (c *reportController) Show(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.reportService.Show(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show report", res))
}

func (c *reportController) Export(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.reportService.ExportJSON(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	ctx.Set("Content-Disposition", `attachment; filename="report-`+id.String()+`.json"`)
	return ctx.JSON(res)
}

// Narration streams the synthesized recap audio back as raw bytes.
func (c *reportController) Narration(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	audio, mime, err := c.reportService.Narration(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	ctx.Set("Content-Type", mime)
	return ctx.Send(audio)
}

func (c *reportController) Related(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.reportService.Related(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get related reports", res))
}

func (c *reportController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	err := c.reportService.Delete(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete report", nil))
}
