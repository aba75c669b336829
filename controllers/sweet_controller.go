package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sweetshop-backend/models"
	"sweetshop-backend/services"
)

type SweetController struct {
	sweets services.SweetService
}

func NewSweetController(sweets services.SweetService) *SweetController {
	return &SweetController{sweets: sweets}
}

func (ctl *SweetController) List(c *gin.Context) {
	sweets, serr := ctl.sweets.List(c.Request.Context())
	if serr != nil {
		c.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sweets": sweets})
}

func (ctl *SweetController) Search(c *gin.Context) {
	q := models.SweetSearchQuery{
		Name:     c.Query("name"),
		Category: c.Query("category"),
	}
	if raw := c.Query("minPrice"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid minPrice"})
			return
		}
		q.MinPrice = &p
	}
	if raw := c.Query("maxPrice"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid maxPrice"})
			return
		}
		q.MaxPrice = &p
	}

	sweets, serr := ctl.sweets.Search(c.Request.Context(), q)
	if serr != nil {
		c.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sweets": sweets})
}

func (ctl *SweetController) Get(c *gin.Context) {
	id, ok := ctl.parseID(c)
	if !ok {
		return
	}
	sweet, serr := ctl.sweets.Get(c.Request.Context(), id)
	if serr != nil {
		c.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	c.JSON(http.StatusOK, sweet)
}

func (ctl *SweetController) Create(c *gin.Context) {
	var req models.CreateSweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	sweet, serr := ctl.sweets.Create(c.Request.Context(), &req)
	if serr != nil {
		c.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	c.JSON(http.StatusCreated, sweet)
}

func (ctl *SweetController) Update(c *gin.Context) {
	id, ok := ctl.parseID(c)
	if !ok {
		return
	}
	var req models.UpdateSweetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	sweet, serr := ctl.sweets.Update(c.Request.Context(), id, &req)
	if serr != nil {
		c.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	c.JSON(http.StatusOK, sweet)
}

func (ctl *SweetController) Delete(c *gin.Context) {
	id, ok := ctl.parseID(c)
	if !ok {
		return
	}
	if serr := ctl.sweets.Delete(c.Request.Context(), id); serr != nil {
		c.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sweet deleted"})
}

func (ctl *SweetController) Restock(c *gin.Context) {
	id, ok := ctl.parseID(c)
	if !ok {
		return
	}
	var req models.RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	sweet, serr := ctl.sweets.Restock(c.Request.Context(), id, req.Amount)
	if serr != nil {
		c.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	c.JSON(http.StatusOK, sweet)
}

func (ctl *SweetController) Purchase(c *gin.Context) {
	id, ok := ctl.parseID(c)
	if !ok {
		return
	}
	sweet, serr := ctl.sweets.Purchase(c.Request.Context(), id)
	if serr != nil {
		c.JSON(serr.StatusCode, gin.H{"error": serr.Message})
		return
	}
	c.JSON(http.StatusOK, sweet)
}

func (ctl *SweetController) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sweet id"})
		return uuid.Nil, false
	}
	return id, true
}
