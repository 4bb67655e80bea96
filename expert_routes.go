package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"expert-hub/models"
	"expert-hub/providers"
	"expert-hub/services"
	"expert-hub/storage"
)

const defaultListLimit = 50

func setupExpertRoutes(router *gin.RouterGroup, d routeDeps) {
	rg := router.Group("/experts")
	log := d.log

	// Liste mit optionaler Volltextsuche und Tag-Filter
	rg.GET("", func(c *gin.Context) {
		q := storage.ExpertQuery{
			Search: c.Query("q"),
			Tag:    c.Query("tag"),
			Limit:  queryInt(c, "limit", defaultListLimit),
			Offset: queryInt(c, "offset", 0),
		}
		docs, err := d.experts.List(c.Request.Context(), q)
		if err != nil {
			log.Error("Database query for experts failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		out := make([]models.StoredExpert, 0, len(docs))
		for i := range docs {
			stored, err := docs[i].Stored()
			if err != nil {
				log.Error("Stored expert document is corrupt", zap.String("id", docs[i].ID), zap.Error(err))
				continue
			}
			out = append(out, stored)
		}
		c.JSON(http.StatusOK, out)
	})

	rg.GET("/:id", func(c *gin.Context) {
		doc, ok := loadExpert(c, d.experts, log)
		if !ok {
			return
		}
		respondExpert(c, http.StatusOK, doc, log)
	})

	// Anlegen aus kanonischem JSON
	rg.POST("", func(c *gin.Context) {
		createExpert(c, d, models.SourceCanonical)
	})

	// Anlegen aus dem einfachen Webformular (name, company, title, expertise, ...)
	rg.POST("/form", func(c *gin.Context) {
		createExpert(c, d, models.SourceForm)
	})

	// Teil-Update per DeepMerge; createdAt und Slug bleiben erhalten
	rg.PATCH("/:id", func(c *gin.Context) {
		var patch map[string]any
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		doc, ok := loadExpert(c, d.experts, log)
		if !ok {
			return
		}
		current, err := doc.Expert()
		if err != nil {
			log.Error("Stored expert document is corrupt", zap.String("id", doc.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		merged, err := services.MergeExpert(current, patch, time.Now())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := doc.SetExpert(merged); err != nil {
			log.Error("Failed to encode expert", zap.String("id", doc.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if err := d.experts.Update(c.Request.Context(), doc); err != nil {
			log.Error("Failed to update expert", zap.String("id", doc.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		respondExpert(c, http.StatusOK, doc, log)
	})

	rg.DELETE("/:id", func(c *gin.Context) {
		id := c.Param("id")
		if _, err := uuid.Parse(id); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "expert not found"})
			return
		}
		if err := d.experts.Delete(c.Request.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "expert not found"})
				return
			}
			log.Error("Failed to delete expert", zap.String("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	// Batch-Import aus einer hochgeladenen CSV- oder JSON-Datei
	rg.POST("/import", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, d.cfg.ImportMaxUploadMB<<20)
		header, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
			return
		}
		f, err := header.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not open uploaded file"})
			return
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
			return
		}

		p, err := providers.ForFile(header.Filename, data, log)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		records, err := p.Read(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		dryRun, _ := strconv.ParseBool(c.Query("dry_run"))
		opts := importOptions(d.cfg, c.Query("mode"), dryRun)
		result, err := d.importer.Run(c.Request.Context(), p.Name(), records, opts)
		if err != nil {
			log.Warn("Import aborted", zap.String("file", p.Name()), zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "import aborted", "result": result})
			return
		}
		c.JSON(http.StatusOK, result)
	})

	// KI-Anreicherung eines gespeicherten Profils
	rg.POST("/:id/enrich", func(c *gin.Context) {
		if d.enricher == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI enrichment is not configured"})
			return
		}
		doc, ok := loadExpert(c, d.experts, log)
		if !ok {
			return
		}
		current, err := doc.Expert()
		if err != nil {
			log.Error("Stored expert document is corrupt", zap.String("id", doc.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		enriched, err := d.enricher.Enrich(c.Request.Context(), current)
		if err != nil {
			log.Error("AI enrichment failed", zap.String("id", doc.ID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "AI enrichment failed"})
			return
		}
		if err := doc.SetExpert(enriched); err != nil {
			log.Error("Failed to encode expert", zap.String("id", doc.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if err := d.experts.Update(c.Request.Context(), doc); err != nil {
			log.Error("Failed to update expert", zap.String("id", doc.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		respondExpert(c, http.StatusOK, doc, log)
	})
}

func setupImportRunRoutes(router *gin.RouterGroup, runs storage.ImportRunStore, log *zap.Logger) {
	router.GET("/imports", func(c *gin.Context) {
		list, err := runs.ListRuns(c.Request.Context(), queryInt(c, "limit", defaultListLimit))
		if err != nil {
			log.Error("Database query for import runs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, list)
	})
}

// createExpert normalisiert den Request-Body, prüft auf Duplikate und legt den Datensatz an.
// Ein Duplikat wird mit 409 und dem vorhandenen Datensatz beantwortet.
func createExpert(c *gin.Context, d routeDeps, source models.Source) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	raw := models.RawRecord{Source: source, Origin: "api", Fields: fields}
	switch source {
	case models.SourceCanonical:
		if models.DetectSource(fields) != models.SourceCanonical {
			c.JSON(http.StatusBadRequest, gin.H{"error": "expected a canonical expert record with personalInfo"})
			return
		}
	case models.SourceForm:
		if models.StringValue(fields["name"]) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "field 'name' is required"})
			return
		}
	}

	candidate, err := d.importer.Normalizer.Normalize(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	existing, err := services.FindExisting(ctx, d.experts, candidate)
	if err != nil {
		d.log.Error("Duplicate lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	if existing != nil {
		respondExpert(c, http.StatusConflict, existing, d.log)
		return
	}

	doc, err := models.NewExpertDocument(uuid.NewString(), source, candidate)
	if err != nil {
		d.log.Error("Failed to encode expert", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if err := d.experts.Insert(ctx, doc); err != nil {
		d.log.Error("Failed to insert expert", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	d.log.Info("Expert created", zap.String("id", doc.ID), zap.String("slug", doc.Slug))
	respondExpert(c, http.StatusCreated, doc, d.log)
}

// loadExpert lädt das Dokument aus dem Pfadparameter :id und beantwortet Fehler selbst.
func loadExpert(c *gin.Context, store storage.ExpertStore, log *zap.Logger) (*models.ExpertDocument, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "expert not found"})
		return nil, false
	}
	doc, err := store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "expert not found"})
			return nil, false
		}
		log.Error("DB error loading expert", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return nil, false
	}
	return doc, true
}

func respondExpert(c *gin.Context, status int, doc *models.ExpertDocument, log *zap.Logger) {
	stored, err := doc.Stored()
	if err != nil {
		log.Error("Stored expert document is corrupt", zap.String("id", doc.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, stored)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 0 {
		return def
	}
	return v
}
