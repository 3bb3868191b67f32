package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ppsgen/backend/internal/model"
	"github.com/ppsgen/backend/internal/pkg/spreadsheet"
	"github.com/ppsgen/backend/internal/service"
	"github.com/ppsgen/backend/internal/service/export"
	"github.com/ppsgen/backend/internal/service/hierarchy"
	"k8s.io/klog/v2"
)

type DatasetHandler struct {
	service *service.DatasetService
}

func NewDatasetHandler(service *service.DatasetService) *DatasetHandler {
	return &DatasetHandler{
		service: service,
	}
}

// Import 上传表格并与已保存的数据合并
func (h *DatasetHandler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	table, err := spreadsheet.Read(header.Filename, file)
	if err != nil {
		klog.V(6).Infof("读取上传表格失败: file=%s, err=%v", header.Filename, err)
		fail(c, err)
		return
	}

	view, err := h.service.Import(c.Request.Context(), ownerID(c), c.Param("name"), hierarchy.RecordsFromRows(table.Header, table.Rows))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Get 当前数据集；内存中没有时尝试从快照恢复
func (h *DatasetHandler) Get(c *gin.Context) {
	view, err := h.service.Load(c.Request.Context(), ownerID(c), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

type updateItemRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func (h *DatasetHandler) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.service.UpdateItemField(c.Request.Context(), ownerID(c), c.Param("name"), c.Param("itemId"), model.FieldName(req.Field), req.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GenerateItem 单条生成，同步返回结果
func (h *DatasetHandler) GenerateItem(c *gin.Context) {
	out, err := h.service.GenerateItem(c.Request.Context(), ownerID(c), c.Param("name"), c.Param("itemId"), model.FieldName(c.Param("field")), apiKey(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"item_id": out.ItemID,
		"field":   out.Field,
		"success": out.Success,
		"value":   out.Value,
		"calls":   out.Calls,
	})
}

// StartBatch 异步批量生成，返回运行 ID
func (h *DatasetHandler) StartBatch(c *gin.Context) {
	run, err := h.service.StartBatch(c.Request.Context(), ownerID(c), c.Param("name"), model.FieldName(c.Param("field")), apiKey(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": run.ID, "status": run.Status})
}

func (h *DatasetHandler) GetRun(c *gin.Context) {
	run, err := h.service.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if run.OwnerID != ownerID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *DatasetHandler) ListRuns(c *gin.Context) {
	runs, err := h.service.ListRuns(c.Request.Context(), ownerID(c), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (h *DatasetHandler) Summary(c *gin.Context) {
	text, err := h.service.GenerateSummary(c.Request.Context(), ownerID(c), c.Param("name"), apiKey(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary_text": text})
}

func (h *DatasetHandler) Inventory(c *gin.Context) {
	entries, err := h.service.Inventory(ownerID(c), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *DatasetHandler) InventoryGroups(c *gin.Context) {
	groups, err := h.service.GroupedInventory(ownerID(c), c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

// Export 下载 xlsx/csv
func (h *DatasetHandler) Export(c *gin.Context) {
	name := c.Param("name")
	kind := export.Kind(c.DefaultQuery("kind", string(export.KindItems)))
	format := export.Format(c.DefaultQuery("format", string(export.FormatXLSX)))

	var buf bytes.Buffer
	if err := h.service.Export(&buf, ownerID(c), name, kind, format); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+export.FileName(name, kind, format)+`"`)
	c.Data(http.StatusOK, export.ContentType(format), buf.Bytes())
}

func (h *DatasetHandler) Notifications(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Notifications(ownerID(c), c.Param("name")))
}

func (h *DatasetHandler) Flush(c *gin.Context) {
	if err := h.service.Flush(c.Request.Context(), ownerID(c), c.Param("name")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "saved"})
}

// List 当前 owner 的数据集
func (h *DatasetHandler) List(c *gin.Context) {
	infos, err := h.service.List(c.Request.Context(), ownerID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": infos})
}

func (h *DatasetHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), ownerID(c), c.Param("name")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes 注册数据集与批量运行路由
func (h *DatasetHandler) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/datasets", h.List)
	datasets := api.Group("/datasets/:name")
	{
		datasets.GET("", h.Get)
		datasets.DELETE("", h.Delete)
		datasets.POST("/import", h.Import)
		datasets.PUT("/items/:itemId", h.UpdateItem)
		datasets.POST("/items/:itemId/generate/:field", h.GenerateItem)
		datasets.POST("/generate/:field", h.StartBatch)
		datasets.GET("/runs", h.ListRuns)
		datasets.POST("/summary", h.Summary)
		datasets.GET("/inventory", h.Inventory)
		datasets.GET("/inventory/groups", h.InventoryGroups)
		datasets.GET("/export", h.Export)
		datasets.GET("/notifications", h.Notifications)
		datasets.POST("/flush", h.Flush)
	}
	api.GET("/runs/:id", h.GetRun)
}
