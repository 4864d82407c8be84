package transport

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/UnendingLoop/Watermarker/internal/imageproc"
	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/wb-go/wbf/ginext"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500):
		return 500
	case errors.Is(err, model.ErrNoImage):
		return 409
	case errors.Is(err, model.ErrExportDisabled):
		return 501
	case errors.Is(err, model.ErrAssetMissing),
		errors.Is(err, model.ErrWrite):
		return 500
	case errors.Is(err, model.ErrIncorrectQuery),
		errors.Is(err, model.ErrDecode),
		errors.Is(err, model.ErrEncode),
		errors.Is(err, model.ErrUnsupportedFormat):
		return 400
	default:
		return 500
	}
}

// formatQuery - ?format= проверяется до обращения к сервису, пустой = png
func formatQuery(ctx *ginext.Context) (string, error) {
	format := ctx.DefaultQuery("format", "png")
	if _, err := imageproc.ParseFormat(format); err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrIncorrectQuery, err)
	}
	return format, nil
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
