// Package main (in api-subfolder) provides launch of the watermark preview server
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/Watermarker/internal/appconfig"
	"github.com/UnendingLoop/Watermarker/internal/imageproc"
	"github.com/UnendingLoop/Watermarker/internal/mwlogger"
	"github.com/UnendingLoop/Watermarker/internal/service"
	"github.com/UnendingLoop/Watermarker/internal/storage"
	"github.com/UnendingLoop/Watermarker/internal/transport"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig, err := appconfig.New("./.env")
	if err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	level := appConfig.GetString(appconfig.KeyLogLevel)
	if level == "" {
		level = "info"
	}
	if err := zlog.SetLevel(level); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings, err := appconfig.Settings(appConfig)
	if err != nil {
		log.Fatalf("Failed to read settings: %v", err)
	}
	if _, _, err := imageproc.ResolveAsset(settings.AssetPath, settings.FallbackAssetPath); err != nil {
		// не фатально: кнопка Watermark просто будет отдавать ошибку
		zlog.Logger.Warn().Err(err).Str("asset", settings.AssetPath).Str("fallback", settings.FallbackAssetPath).Msg("Watermark asset is not available")
	}

	// подключиться к хранилищу - опционально, без MINIO_ENDPOINT экспорт выключен
	strgOpts, err := appconfig.StorageOptions(appConfig)
	if err != nil {
		log.Fatalf("Failed to read storage settings: %v", err)
	}
	var strg service.ImageStorage
	minioStrg, err := storage.NewImgStorage(ctx, strgOpts, retry.Strategy{Attempts: 5, Delay: 5 * time.Second, Backoff: 1})
	if err != nil {
		log.Fatalf("Failed to connect IMG-storage: %v", err)
	}
	if minioStrg != nil {
		strg = minioStrg
	}

	// создаем экземпляр сервиса
	var svc ImageAPIService = service.NewImageService(settings, imageproc.NewWatermarker(settings), strg)
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewImageHandler(svc)
	// сетапим сервер
	mode := appConfig.GetString(appconfig.KeyGinMode)
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.GET("/state", handlers.GetState)             // состояние сессии и доступные действия
	engine.POST("/image/open", handlers.Open)           // открыть файл по пути
	engine.POST("/image/upload", handlers.Upload)       // открыть загруженный файл
	engine.GET("/image/preview", handlers.Preview)      // текущее превью
	engine.POST("/image/watermark", handlers.Watermark) // наложить водяной знак
	engine.POST("/image/save", handlers.Save)           // сохранить по пути
	engine.GET("/image/download", handlers.Download)    // скачать результат
	engine.POST("/image/export", handlers.Export)       // выгрузить результат в minio

	port := appConfig.GetString(appconfig.KeyAppPort)
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mwlogger.NewMWLogger(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул остановки сервера
	<-ctx.Done()

	shutdown(srv)
	log.Println("Exiting app...")
}

func shutdown(srv *http.Server) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("Failed to shutdown server correctly:", err)
		return
	}
	log.Println("Server stopped")
}
