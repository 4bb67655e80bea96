package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"expert-hub/models"
	"expert-hub/services"
	"expert-hub/storage"
)

func setupCompanyRoutes(router *gin.RouterGroup, store storage.CompanyStore, log *zap.Logger) {
	rg := router.Group("/companies")

	rg.GET("", func(c *gin.Context) {
		companies, err := store.List(c.Request.Context(), queryInt(c, "limit", defaultListLimit))
		if err != nil {
			log.Error("Database query for companies failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, companies)
	})

	rg.GET("/:id", func(c *gin.Context) {
		company, ok := loadCompany(c, store, log)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, company)
	})

	// Anlegen; ein Unternehmen mit gleichem Namen wird mit 409 zurückgegeben
	rg.POST("", func(c *gin.Context) {
		var fields map[string]any
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		company, err := services.NormalizeCompany(fields)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx := c.Request.Context()
		existing, err := store.FindByName(ctx, company.Name)
		switch {
		case err == nil:
			c.JSON(http.StatusConflict, existing)
			return
		case !errors.Is(err, storage.ErrNotFound):
			log.Error("Company lookup failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}

		now := time.Now()
		company.ID = uuid.NewString()
		company.CreatedAt = now
		company.UpdatedAt = now
		if err := store.Insert(ctx, company); err != nil {
			log.Error("Failed to insert company", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusCreated, company)
	})

	rg.PATCH("/:id", func(c *gin.Context) {
		var patch map[string]any
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		company, ok := loadCompany(c, store, log)
		if !ok {
			return
		}
		merged, err := services.MergeCompany(company, patch, time.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := store.Update(c.Request.Context(), merged); err != nil {
			log.Error("Failed to update company", zap.String("id", merged.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, merged)
	})
}

func loadCompany(c *gin.Context, store storage.CompanyStore, log *zap.Logger) (*models.Company, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
		return nil, false
	}
	company, err := store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "company not found"})
			return nil, false
		}
		log.Error("DB error loading company", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return nil, false
	}
	return company, true
}
