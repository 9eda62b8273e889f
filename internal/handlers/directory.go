package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/jinsharnam/internal/services"
	"github.com/example/jinsharnam/internal/utils"
)

// DirectoryHandler serves the public member directory.
type DirectoryHandler struct {
	directory *services.DirectoryService
}

// NewDirectoryHandler constructs DirectoryHandler.
func NewDirectoryHandler(directory *services.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// Search lists members matching the q query parameter.
func (h *DirectoryHandler) Search(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	members, total, err := h.directory.Search(c.UserContext(), c.Query("q"), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"data":       members,
		"pagination": pg.Meta(total),
	})
}
