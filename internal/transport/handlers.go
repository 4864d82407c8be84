// Package transport provides methods for processing requests from endpoints of the preview server
package transport

import (
	"context"
	"io"
	"log"
	"strconv"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/wb-go/wbf/ginext"
)

type ImageHandler struct {
	service ImageService
}

type ImageService interface {
	Info() model.SessionInfo
	Open(ctx context.Context, path string) (model.SessionInfo, error)                    // путь из диалога открытия
	OpenReader(ctx context.Context, name string, r io.Reader) (model.SessionInfo, error) // загрузка через форму
	Watermark(ctx context.Context) (model.SessionInfo, error)
	Save(ctx context.Context, path string) (model.SessionInfo, error) // путь из диалога сохранения
	Preview(ctx context.Context) (io.Reader, int64, error)
	Download(ctx context.Context, format string) (io.Reader, int64, string, error)
	Export(ctx context.Context, format string) (string, error)
}

type pathRequest struct {
	Path string `json:"path"`
}

func NewImageHandler(svc ImageService) *ImageHandler {
	return &ImageHandler{
		service: svc,
	}
}

func (h ImageHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

func (h ImageHandler) GetState(ctx *ginext.Context) {
	ctx.JSON(200, h.service.Info())
}

// Open - пустой path означает закрытый без выбора диалог: состояние не меняется
func (h ImageHandler) Open(ctx *ginext.Context) {
	var req pathRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse request body"})
		return
	}

	res, err := h.service.Open(ctx.Request.Context(), req.Path)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) Upload(ctx *ginext.Context) {
	imageFile, imageHeader, err := ctx.Request.FormFile("image")
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "image is required"})
		return
	}
	defer closeFileFlow(imageFile)

	res, err := h.service.OpenReader(ctx.Request.Context(), imageHeader.Filename, imageFile)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) Preview(ctx *ginext.Context) {
	res, size, err := h.service.Preview(ctx.Request.Context())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	writeImage(ctx, res, size, model.PNG, "")
}

func (h ImageHandler) Watermark(ctx *ginext.Context) {
	res, err := h.service.Watermark(ctx.Request.Context())
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

// Save - пустой path означает отмену диалога сохранения
func (h ImageHandler) Save(ctx *ginext.Context) {
	var req pathRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse request body"})
		return
	}

	res, err := h.service.Save(ctx.Request.Context(), req.Path)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, res)
}

func (h ImageHandler) Download(ctx *ginext.Context) {
	format, err := formatQuery(ctx)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	res, size, cType, err := h.service.Download(ctx.Request.Context(), format)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	info := h.service.Info()
	name := "watermarked" + model.GetImageFileExt[cType]
	if info.ID != "" {
		name = info.ID + model.GetImageFileExt[cType]
	}
	writeImage(ctx, res, size, cType, name)
}

func (h ImageHandler) Export(ctx *ginext.Context) {
	format, err := formatQuery(ctx)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	key, err := h.service.Export(ctx.Request.Context(), format)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(201, map[string]string{"key": key})
}

func writeImage(ctx *ginext.Context, r io.Reader, size int64, cType, attachment string) {
	ctx.Writer.Header().Set("Content-Type", cType)
	ctx.Writer.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	ctx.Writer.Header().Set("Cache-Control", "no-store")
	if attachment != "" {
		ctx.Writer.Header().Set("Content-Disposition", `attachment; filename="`+attachment+`"`)
	}
	ctx.Writer.WriteHeader(200)
	if n, err := io.Copy(ctx.Writer, r); err != nil {
		log.Printf("Failed to write response at byte %d: %v", n, err)
	}
}
