package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/imagestore"
	"github.com/avrusin/storefront/internal/models"
	"github.com/avrusin/storefront/internal/mykafka"
	"github.com/avrusin/storefront/internal/util"
)

const workspaceImageKind = "workspace-images"

type WorkspaceHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Images   *imagestore.Store
}

type workspaceRequest struct {
	Name        string `json:"name"        form:"name"`
	Location    string `json:"location"    form:"location"`
	Price       int64  `json:"price"       form:"price"`
	Description string `json:"description" form:"description"`
}

func (h *WorkspaceHandler) GetWorkspaces(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Workspace{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Workspace
	if err := h.DB.Model(&models.Workspace{}).
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":  page,
			"size":  limit,
			"total": total,
		},
	})
}

func (h *WorkspaceHandler) GetWorkspace(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var ws models.Workspace
	if err := h.DB.First(&ws, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "workspace not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, ws)
}

// CreateWorkspace records the listing against the signed-in staff
// account.
func (h *WorkspaceHandler) CreateWorkspace(c echo.Context) error {
	staffID, err := subjectID(c)
	if err != nil {
		return err
	}

	var req workspaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}

	ws := models.Workspace{
		StaffID:     staffID,
		Name:        req.Name,
		Location:    req.Location,
		Price:       req.Price,
		Description: req.Description,
	}
	if err := h.DB.Create(&ws).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if file, err := c.FormFile("image"); err == nil && h.Images != nil {
		path, err := h.Images.Save(workspaceImageKind, ws.ID, file)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if err := h.DB.Model(&ws).Update("image_path", path).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		ws.ImagePath = path
	}

	publishEvent(c, h.Producer, "workspace_events", roleKey(c), map[string]any{
		"type":        "workspace_created",
		"workspaceID": ws.ID,
		"staffID":     staffID,
		"name":        ws.Name,
	})

	return c.JSON(http.StatusCreated, ws)
}

func (h *WorkspaceHandler) PatchWorkspace(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req workspaceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var ws models.Workspace
	if err := h.DB.First(&ws, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "workspace not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Name != "" {
		ws.Name = req.Name
	}
	if req.Location != "" {
		ws.Location = req.Location
	}
	if req.Price > 0 {
		ws.Price = req.Price
	}
	if req.Description != "" {
		ws.Description = req.Description
	}

	if file, err := c.FormFile("image"); err == nil && h.Images != nil {
		path, err := h.Images.Save(workspaceImageKind, ws.ID, file)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		ws.ImagePath = path
	}

	if err := h.DB.Save(&ws).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publishEvent(c, h.Producer, "workspace_events", roleKey(c), map[string]any{
		"type":        "workspace_updated",
		"workspaceID": ws.ID,
	})

	return c.JSON(http.StatusOK, ws)
}

func (h *WorkspaceHandler) DeleteWorkspace(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.DB.Delete(&models.Workspace{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if h.Images != nil {
		if err := h.Images.Remove(workspaceImageKind, id); err != nil {
			c.Logger().Errorf("image remove error: %v", err)
		}
	}

	publishEvent(c, h.Producer, "workspace_events", roleKey(c), map[string]any{
		"type":        "workspace_deleted",
		"workspaceID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

func (h *WorkspaceHandler) DeleteAllWorkspaces(c echo.Context) error {
	var ids []uint
	if err := h.DB.Model(&models.Workspace{}).Pluck("id", &ids).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.DB.Where("1 = 1").Delete(&models.Workspace{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if h.Images != nil {
		for _, id := range ids {
			if err := h.Images.Remove(workspaceImageKind, id); err != nil {
				c.Logger().Errorf("image remove error: %v", err)
			}
		}
	}

	return c.NoContent(http.StatusNoContent)
}
