package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"Place-App/internal/application"
	"Place-App/internal/domain/model"
)

// BlocksHandler ブロックAPIのHTTPハンドラー
type BlocksHandler struct {
	blocksService application.BlocksService
	allowedColors []string
}

// NewBlocksHandler BlocksHandlerの新しいインスタンスを作成
func NewBlocksHandler(blocksService application.BlocksService, allowedColors []string) *BlocksHandler {
	return &BlocksHandler{
		blocksService: blocksService,
		allowedColors: allowedColors,
	}
}

// GetBlock GET /block/get - ブロックを1件取得
func (h *BlocksHandler) GetBlock(c *gin.Context) {
	blockID := c.Query("block_id")
	if blockID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "block_id parameter is required (format: 'ix#iy', e.g. '00001#00001')",
		})
		return
	}

	block, err := h.blocksService.GetBlock(c.Request.Context(), blockID)
	if err != nil {
		h.writeBlockError(c, err)
		return
	}

	c.JSON(http.StatusOK, block)
}

// GetBlocksInRange GET /block/range - 座標範囲内のブロック一覧を取得
func (h *BlocksHandler) GetBlocksInRange(c *gin.Context) {
	// デフォルトは赤道付近のデモ用の小さな範囲
	x1, ok := h.queryFloat(c, "x1", "0.0001")
	if !ok {
		return
	}
	y1, ok := h.queryFloat(c, "y1", "0.0001")
	if !ok {
		return
	}
	x2, ok := h.queryFloat(c, "x2", "0.0005")
	if !ok {
		return
	}
	y2, ok := h.queryFloat(c, "y2", "0.0005")
	if !ok {
		return
	}

	blocks, err := h.blocksService.GetBlocksInRange(c.Request.Context(), x1, y1, x2, y2)
	if err != nil {
		if errors.Is(err, model.ErrRangeTooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":   "range_too_large",
				"message": "Too many blocks requested, narrow the range: " + err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to get blocks: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, blocks)
}

// PlaceBlock POST /block/place - ブロックの作成・更新
func (h *BlocksHandler) PlaceBlock(c *gin.Context) {
	blockID := c.Query("block_id")
	if blockID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "missing_parameter",
			"message": "block_id parameter is required (format: 'ix#iy', e.g. '00001#00001')",
		})
		return
	}

	var metadata model.BlockMetadata
	if err := c.ShouldBindJSON(&metadata); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Invalid JSON format: " + err.Error(),
		})
		return
	}

	block, err := h.blocksService.PlaceBlock(c.Request.Context(), blockID, &metadata)
	if err != nil {
		h.writeBlockError(c, err)
		return
	}

	c.JSON(http.StatusOK, block)
}

// GetPalette GET /block/palette - 使用可能なカラーパレットを取得
func (h *BlocksHandler) GetPalette(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"allowed_colors": h.allowedColors,
	})
}

// writeBlockError サービス層のエラーをHTTPステータスに変換する
func (h *BlocksHandler) writeBlockError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrMalformedBlockID):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "malformed_block_id",
			"message": err.Error(),
		})
	case errors.Is(err, model.ErrInvalidIndexType):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_index_type",
			"message": err.Error(),
		})
	case errors.Is(err, model.ErrDuplicateBlock):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "duplicate_block",
			"message": err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": err.Error(),
		})
	}
}

// queryFloat クエリパラメータをfloat64として解析する。失敗時は400を書き込む
func (h *BlocksHandler) queryFloat(c *gin.Context, name, defaultValue string) (float64, bool) {
	value, err := strconv.ParseFloat(c.DefaultQuery(name, defaultValue), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_parameter",
			"message": "Invalid " + name + " value",
		})
		return 0, false
	}
	return value, true
}
