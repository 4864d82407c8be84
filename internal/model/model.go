// Package model provides data-structs for internal app-usage
package model

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"
)

// ImageBuffer - рабочий буфер картинки: non-premultiplied RGBA, 8 бит на канал.
// Все загруженные и обработанные изображения приводятся к этому типу.
type ImageBuffer = *image.NRGBA

type (
	State  string
	Action string
)

const (
	StateEmpty       State = "empty"
	StateLoaded      State = "loaded"
	StateWatermarked State = "watermarked"
	StateSaved       State = "saved"
)

const (
	ActOpen      Action = "open"
	ActWatermark Action = "watermark"
	ActSave      Action = "save"
	ActExport    Action = "export"
)

//---------------------

// SessionInfo - снимок состояния сессии для отдачи наружу (GUI/HTTP/CLI)
type SessionInfo struct {
	ID      string   `json:"id,omitempty"`
	State   State    `json:"state"`
	Name    string   `json:"name,omitempty"`
	Source  string   `json:"source,omitempty"`
	Width   int      `json:"width,omitempty"`
	Height  int      `json:"height,omitempty"`
	Marks   int      `json:"marks"`
	SavedTo string   `json:"saved_to,omitempty"`
	Actions []Action `json:"actions"`
}

// ------------------

var (
	ErrCommon500         error = errors.New("something went wrong. Try again later") // 500
	ErrDecode            error = errors.New("failed to open image")                  // 400
	ErrAssetMissing      error = errors.New("watermark asset not found")             // 500
	ErrEncode            error = errors.New("failed to encode image")                // 400
	ErrWrite             error = errors.New("failed to write image")                 // 500
	ErrCancelled         error = errors.New("no file selected")                      // 204
	ErrNoImage           error = errors.New("no image loaded")                       // 409
	ErrUnsupportedFormat error = errors.New("unsupported image format")              // 400
	ErrExportDisabled    error = errors.New("export storage is not configured")      // 501
	ErrInvalidSettings   error = errors.New("invalid settings")                      // startup
	ErrIncorrectQuery    error = errors.New("incorrect query parameters")            // 400
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	BMP  = "image/bmp"
	TIFF = "image/tiff"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
	BMP:  ".bmp",
	TIFF: ".tif",
}

var GetCType = map[imaging.Format]string{
	imaging.JPEG: JPEG,
	imaging.GIF:  GIF,
	imaging.PNG:  PNG,
	imaging.BMP:  BMP,
	imaging.TIFF: TIFF,
}
