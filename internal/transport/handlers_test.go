package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/ginext"
)

func TestImageHandler_Ping(t *testing.T) {
	r := gin.New()
	h := NewImageHandler(nil)

	r.GET("/ping", func(c *gin.Context) {
		h.SimplePinger((*ginext.Context)(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	require.Equal(t, 200, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "pong", body["message"])
}

func TestImageHandler_GetState(t *testing.T) {
	r := gin.New()
	h := NewImageHandler(&mockImageService{
		infoFn: func() model.SessionInfo {
			return model.SessionInfo{State: model.StateEmpty, Actions: []model.Action{model.ActOpen}}
		},
	})

	r.GET("/state", func(c *gin.Context) {
		h.GetState((*ginext.Context)(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)
	require.Equal(t, 200, w.Code)

	var body model.SessionInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, model.StateEmpty, body.State)
	require.Equal(t, []model.Action{model.ActOpen}, body.Actions)
}

func TestImageHandler_Open(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mock       *mockImageService
		wantStatus int
	}{
		{
			name: "success",
			body: `{"path":"/tmp/photo.png"}`,
			mock: &mockImageService{
				openFn: func(ctx context.Context, path string) (model.SessionInfo, error) {
					require.Equal(t, "/tmp/photo.png", path)
					return model.SessionInfo{State: model.StateLoaded, Width: 560, Height: 336}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name: "dialog cancelled",
			body: `{"path":""}`,
			mock: &mockImageService{
				openFn: func(ctx context.Context, path string) (model.SessionInfo, error) {
					require.Empty(t, path)
					return model.SessionInfo{State: model.StateEmpty}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name:       "broken body",
			body:       `{"path":`,
			mock:       &mockImageService{},
			wantStatus: 400,
		},
		{
			name: "not an image",
			body: `{"path":"/tmp/notes.txt"}`,
			mock: &mockImageService{
				openFn: func(ctx context.Context, path string) (model.SessionInfo, error) {
					return model.SessionInfo{}, model.ErrDecode
				},
			},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock)

			r.POST("/image/open", func(c *gin.Context) {
				h.Open((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodPost, "/image/open", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func newMultipartRequest(t *testing.T, files map[string][]byte) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, content := range files {
		fw, err := w.CreateFormFile(name, name+".png")
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/image/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestImageHandler_Upload(t *testing.T) {
	tests := []struct {
		name       string
		req        *http.Request
		mock       *mockImageService
		wantStatus int
	}{
		{
			name: "success",
			req:  newMultipartRequest(t, map[string][]byte{"image": []byte("img")}),
			mock: &mockImageService{
				openReaderFn: func(ctx context.Context, name string, r io.Reader) (model.SessionInfo, error) {
					require.Equal(t, "image.png", name)
					data, err := io.ReadAll(r)
					require.NoError(t, err)
					require.Equal(t, []byte("img"), data)
					return model.SessionInfo{State: model.StateLoaded}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name:       "missing image",
			req:        newMultipartRequest(t, nil),
			mock:       &mockImageService{},
			wantStatus: 400,
		},
		{
			name: "decode failure",
			req:  newMultipartRequest(t, map[string][]byte{"image": []byte("garbage")}),
			mock: &mockImageService{
				openReaderFn: func(ctx context.Context, name string, r io.Reader) (model.SessionInfo, error) {
					return model.SessionInfo{}, model.ErrDecode
				},
			},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock)

			r.POST("/image/upload", func(c *gin.Context) {
				h.Upload((*ginext.Context)(c))
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, tt.req)

			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestImageHandler_Watermark(t *testing.T) {
	tests := []struct {
		name       string
		mock       *mockImageService
		wantStatus int
	}{
		{
			name: "success",
			mock: &mockImageService{
				watermarkFn: func(ctx context.Context) (model.SessionInfo, error) {
					return model.SessionInfo{State: model.StateWatermarked, Marks: 1}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name: "asset missing",
			mock: &mockImageService{
				watermarkFn: func(ctx context.Context) (model.SessionInfo, error) {
					return model.SessionInfo{}, model.ErrAssetMissing
				},
			},
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock)

			r.POST("/image/watermark", func(c *gin.Context) {
				h.Watermark((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodPost, "/image/watermark", nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestImageHandler_Save(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mock       *mockImageService
		wantStatus int
	}{
		{
			name: "success",
			body: `{"path":"/tmp/out.jpg"}`,
			mock: &mockImageService{
				saveFn: func(ctx context.Context, path string) (model.SessionInfo, error) {
					return model.SessionInfo{State: model.StateSaved, SavedTo: path}, nil
				},
			},
			wantStatus: 200,
		},
		{
			name: "unknown extension",
			body: `{"path":"/tmp/out.xyz"}`,
			mock: &mockImageService{
				saveFn: func(ctx context.Context, path string) (model.SessionInfo, error) {
					return model.SessionInfo{}, model.ErrEncode
				},
			},
			wantStatus: 400,
		},
		{
			name: "write failure",
			body: `{"path":"/nope/out.png"}`,
			mock: &mockImageService{
				saveFn: func(ctx context.Context, path string) (model.SessionInfo, error) {
					return model.SessionInfo{}, model.ErrWrite
				},
			},
			wantStatus: 500,
		},
		{
			name:       "broken body",
			body:       `path`,
			mock:       &mockImageService{},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock)

			r.POST("/image/save", func(c *gin.Context) {
				h.Save((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodPost, "/image/save", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestImageHandler_Preview(t *testing.T) {
	tests := []struct {
		name       string
		mock       *mockImageService
		wantStatus int
		wantType   string
	}{
		{
			name: "success",
			mock: &mockImageService{
				previewFn: func(ctx context.Context) (io.Reader, int64, error) {
					return bytes.NewReader([]byte("png")), 3, nil
				},
			},
			wantStatus: 200,
			wantType:   model.PNG,
		},
		{
			name: "nothing loaded",
			mock: &mockImageService{
				previewFn: func(ctx context.Context) (io.Reader, int64, error) {
					return nil, 0, model.ErrNoImage
				},
			},
			wantStatus: 409,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock)

			r.GET("/image/preview", func(c *gin.Context) {
				h.Preview((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/image/preview", nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantType != "" {
				require.Equal(t, tt.wantType, w.Header().Get("Content-Type"))
				require.Equal(t, "png", w.Body.String())
			}
		})
	}
}

func TestImageHandler_Download(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		mock        *mockImageService
		wantStatus  int
		wantFormat  string
		wantHeaders map[string]string
	}{
		{
			name:  "default png",
			query: "",
			mock: &mockImageService{
				downloadFn: func(ctx context.Context, format string) (io.Reader, int64, string, error) {
					require.Equal(t, "png", format)
					return bytes.NewReader([]byte("data")), 4, model.PNG, nil
				},
				infoFn: func() model.SessionInfo { return model.SessionInfo{ID: "abc"} },
			},
			wantStatus: 200,
			wantHeaders: map[string]string{
				"Content-Type":        model.PNG,
				"Content-Length":      "4",
				"Content-Disposition": `attachment; filename="abc.png"`,
			},
		},
		{
			name:  "jpeg",
			query: "?format=jpg",
			mock: &mockImageService{
				downloadFn: func(ctx context.Context, format string) (io.Reader, int64, string, error) {
					require.Equal(t, "jpg", format)
					return bytes.NewReader([]byte("jp")), 2, model.JPEG, nil
				},
				infoFn: func() model.SessionInfo { return model.SessionInfo{} },
			},
			wantStatus: 200,
			wantHeaders: map[string]string{
				"Content-Type":        model.JPEG,
				"Content-Disposition": `attachment; filename="watermarked.jpg"`,
			},
		},
		{
			name:       "bad format rejected before the service",
			query:      "?format=psd",
			mock:       &mockImageService{},
			wantStatus: 400,
		},
		{
			name:  "service rejects the image",
			query: "?format=jpeg",
			mock: &mockImageService{
				downloadFn: func(ctx context.Context, format string) (io.Reader, int64, string, error) {
					return nil, 0, "", model.ErrEncode
				},
			},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock)

			r.GET("/image/download", func(c *gin.Context) {
				h.Download((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodGet, "/image/download"+tt.query, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
			for k, v := range tt.wantHeaders {
				require.Equal(t, v, w.Header().Get(k), k)
			}
		})
	}
}

func TestImageHandler_Export(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		mock       *mockImageService
		wantStatus int
		wantKey    string
	}{
		{
			name: "success",
			mock: &mockImageService{
				exportFn: func(ctx context.Context, format string) (string, error) {
					return "abc.png", nil
				},
			},
			wantStatus: 201,
			wantKey:    "abc.png",
		},
		{
			name: "storage not configured",
			mock: &mockImageService{
				exportFn: func(ctx context.Context, format string) (string, error) {
					return "", model.ErrExportDisabled
				},
			},
			wantStatus: 501,
		},
		{
			name: "storage failure",
			mock: &mockImageService{
				exportFn: func(ctx context.Context, format string) (string, error) {
					return "", model.ErrCommon500
				},
			},
			wantStatus: 500,
		},
		{
			name:       "bad format",
			query:      "?format=tiff2",
			mock:       &mockImageService{},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			h := NewImageHandler(tt.mock)

			r.POST("/image/export", func(c *gin.Context) {
				h.Export((*ginext.Context)(c))
			})

			req := httptest.NewRequest(http.MethodPost, "/image/export"+tt.query, nil)
			w := httptest.NewRecorder()

			r.ServeHTTP(w, req)
			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantKey != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				require.Equal(t, tt.wantKey, body["key"])
			}
		})
	}
}

func TestErrorCodeDefiner(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.ErrDecode, 400},
		{model.ErrUnsupportedFormat, 400},
		{model.ErrIncorrectQuery, 400},
		{model.ErrNoImage, 409},
		{model.ErrExportDisabled, 501},
		{model.ErrWrite, 500},
		{errors.Join(model.ErrEncode, errors.New("png: invalid")), 400},
		{errors.New("unknown"), 500},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, errorCodeDefiner(tt.err), tt.err.Error())
	}
}
