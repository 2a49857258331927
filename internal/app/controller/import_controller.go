package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xqian/apparel-crm-backend/internal/app/service"
	apperrors "github.com/xqian/apparel-crm-backend/internal/errors"
	"github.com/xqian/apparel-crm-backend/internal/middleware"
)

type ImportController struct {
	importService service.ImportService
	broadcast     service.ImportSink // 可为 nil，向 WebSocket 观察端同步转发
}

func NewImportController(importService service.ImportService, broadcast service.ImportSink) *ImportController {
	return &ImportController{
		importService: importService,
		broadcast:     broadcast,
	}
}

// ImportBills 上传账单文件并同步导入，返回汇总结果
func (ctrl *ImportController) ImportBills(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ImportInvalidFile, "请上传账单文件")
		return
	}
	defer file.Close()

	summary, err := ctrl.importService.ImportWorkbook(file, header.Filename, ctrl.broadcast)
	if err != nil {
		log.Error("Import failed", err, map[string]interface{}{
			"filename": header.Filename,
		})
		apperrors.BadRequest(c, apperrors.ImportFailed, "导入失败，请检查文件格式")
		return
	}

	log.Info("Import completed", map[string]interface{}{
		"filename":  header.Filename,
		"processed": summary.TotalProcessed,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "导入完成",
		"summary": summary,
	})
}

// ImportBillsStream 上传账单文件并以 SSE 推送逐行进度，最后推送一条
// result 事件携带汇总
func (ctrl *ImportController) ImportBillsStream(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ImportInvalidFile, "请上传账单文件")
		return
	}
	defer file.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)

	flusher, _ := c.Writer.(http.Flusher)

	// 导入是同步的，sink 在当前 goroutine 内被调用，可直接写响应
	sink := func(event service.ImportEvent) {
		payload, marshalErr := json.Marshal(event)
		if marshalErr != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		if flusher != nil {
			flusher.Flush()
		}
		if ctrl.broadcast != nil {
			ctrl.broadcast(event)
		}
	}

	summary, err := ctrl.importService.ImportWorkbook(file, header.Filename, sink)
	if err != nil {
		log.Error("Streamed import failed", err, map[string]interface{}{
			"filename": header.Filename,
		})
		fmt.Fprintf(c.Writer, "event: error\ndata: %s\n\n", sseJSON(gin.H{
			"error":   apperrors.ImportFailed,
			"message": "导入失败，请检查文件格式",
		}))
		if flusher != nil {
			flusher.Flush()
		}
		return
	}

	fmt.Fprintf(c.Writer, "event: result\ndata: %s\n\n", sseJSON(gin.H{"summary": summary}))
	if flusher != nil {
		flusher.Flush()
	}
}

func sseJSON(v interface{}) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(payload)
}
