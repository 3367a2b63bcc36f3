package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger/internal/application/dto"
	"github.com/jhoicas/stock-ledger/internal/application/ledger"
	"github.com/jhoicas/stock-ledger/pkg/logger"
)

// ImportHandler disparo de importación y configuraciones del origen (solo admin).
type ImportHandler struct {
	importUC *ledger.ImportUseCase
	configUC *ledger.FeedConfigUseCase
	log      *logger.Logger
}

// NewImportHandler construye el handler.
func NewImportHandler(importUC *ledger.ImportUseCase, configUC *ledger.FeedConfigUseCase, log *logger.Logger) *ImportHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ImportHandler{importUC: importUC, configUC: configUC, log: log.Component("http.import")}
}

// Import godoc
// @Summary      Importar y reemplazar el ledger
// @Description  Descarga maestro y movimientos del origen activo y reemplaza el ledger completo de forma atómica.
// @Tags         import
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ImportResult
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/import [post]
func (h *ImportHandler) Import(c *fiber.Ctx) error {
	res, err := h.importUC.Run(c.UserContext())
	if err != nil {
		h.log.Warn().Str("user_id", GetUserID(c)).Err(err).Msg("importación rechazada")
		return writeError(c, err)
	}
	h.log.Info().Str("user_id", GetUserID(c)).Str("run_id", res.RunID).Msg("importación completada")
	return c.JSON(res)
}

// ListConfigs godoc
// @Summary      Listar configuraciones del origen
// @Tags         import
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.FeedConfigResponse
// @Router       /api/feed-configs [get]
func (h *ImportHandler) ListConfigs(c *fiber.Ctx) error {
	list, err := h.configUC.List(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}

// SaveConfig godoc
// @Summary      Crear o actualizar configuración del origen
// @Description  Activar una configuración desactiva las demás.
// @Tags         import
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.FeedConfigRequest  true  "url, username, password, is_active"
// @Success      201   {object}  dto.FeedConfigResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/feed-configs [post]
func (h *ImportHandler) SaveConfig(c *fiber.Ctx) error {
	var in dto.FeedConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.configUC.Save(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
