package handlers

import (
	"errors"
	"net/http"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/avrusin/storefront/internal/cache"
	"github.com/avrusin/storefront/internal/imagestore"
	"github.com/avrusin/storefront/internal/models"
	"github.com/avrusin/storefront/internal/mykafka"
	"github.com/avrusin/storefront/internal/service/search"
	"github.com/avrusin/storefront/internal/util"
)

const productImageKind = "product-images"

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	Index    string
	Cache    *cache.ProductCache
	Images   *imagestore.Store
}

type productRequest struct {
	Name        string `json:"name"        form:"name"`
	Category    string `json:"category"    form:"category"`
	Price       int64  `json:"price"       form:"price"`
	Description string `json:"description" form:"description"`
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	var total int64
	if err := h.DB.Model(&models.Product{}).Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := h.DB.Model(&models.Product{}).
		Order("id ASC").Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if p, ok := h.Cache.Get(ctx, id); ok {
		return c.JSON(http.StatusOK, p)
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.Cache.Set(ctx, &product)
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}
	if req.Name == "" || req.Price <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "name and a positive price are required")
	}

	prod := models.Product{
		Name:        req.Name,
		Category:    req.Category,
		Price:       req.Price,
		Description: req.Description,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if file, err := c.FormFile("image"); err == nil && h.Images != nil {
		path, err := h.Images.Save(productImageKind, prod.ID, file)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if err := h.DB.Model(&prod).Update("image_path", path).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		prod.ImagePath = path
	}

	if err := search.IndexProduct(c.Request().Context(), h.ES, h.Index, &prod); err != nil {
		c.Logger().Errorf("es index error: %v", err)
	}

	publishEvent(c, h.Producer, "product_events", roleKey(c), map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "product not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Name != "" {
		prod.Name = req.Name
	}
	if req.Category != "" {
		prod.Category = req.Category
	}
	if req.Price > 0 {
		prod.Price = req.Price
	}
	if req.Description != "" {
		prod.Description = req.Description
	}

	if file, err := c.FormFile("image"); err == nil && h.Images != nil {
		path, err := h.Images.Save(productImageKind, prod.ID, file)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		prod.ImagePath = path
	}

	if err := h.DB.Save(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	h.Cache.Invalidate(ctx, prod.ID)
	if err := search.IndexProduct(ctx, h.ES, h.Index, &prod); err != nil {
		c.Logger().Errorf("es index error: %v", err)
	}

	publishEvent(c, h.Producer, "product_events", roleKey(c), map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if h.Images != nil {
		if err := h.Images.Remove(productImageKind, id); err != nil {
			c.Logger().Errorf("image remove error: %v", err)
		}
	}

	ctx := c.Request().Context()
	h.Cache.Invalidate(ctx, id)
	if err := search.RemoveProduct(ctx, h.ES, h.Index, id); err != nil {
		c.Logger().Errorf("es remove error: %v", err)
	}

	publishEvent(c, h.Producer, "product_events", roleKey(c), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}

// DeleteAllProducts clears the whole catalog, images included.
func (h *ProductHandler) DeleteAllProducts(c echo.Context) error {
	var ids []uint
	if err := h.DB.Model(&models.Product{}).Pluck("id", &ids).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if err := h.DB.Where("1 = 1").Delete(&models.Product{}).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ctx := c.Request().Context()
	for _, id := range ids {
		h.Cache.Invalidate(ctx, id)
		if h.Images != nil {
			if err := h.Images.Remove(productImageKind, id); err != nil {
				c.Logger().Errorf("image remove error: %v", err)
			}
		}
		if err := search.RemoveProduct(ctx, h.ES, h.Index, id); err != nil {
			c.Logger().Errorf("es remove error: %v", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}
