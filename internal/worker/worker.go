// Package worker contains the batch pool: several workers take image paths from a queue
// and run open -> watermark -> save on each of them independently of the interactive session
package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/UnendingLoop/Watermarker/internal/imageproc"
	"github.com/UnendingLoop/Watermarker/internal/model"
	"github.com/UnendingLoop/Watermarker/internal/mwlogger"
	"github.com/UnendingLoop/Watermarker/internal/service"
	"github.com/UnendingLoop/Watermarker/internal/storage"
	"github.com/wb-go/wbf/retry"
)

// Task - один файл пакетной обработки
type Task struct {
	Input  string
	Output string
}

// Result - итог по одному файлу; Err != nil означает, что файл пропущен
type Result struct {
	Task    Task
	SavedTo string
	Key     string
	Width   int
	Height  int
	Err     error
}

type Worker struct {
	settings     model.Settings
	marker       service.Watermarker
	storage      service.ImageStorage
	queue        <-chan Task
	putRetry     retry.Strategy
	passes       int
	resultPrefix string
}

// NewWorkerInstance - strg может быть nil, тогда результат только пишется на диск
func NewWorkerInstance(s model.Settings, marker service.Watermarker, strg service.ImageStorage, q <-chan Task, passes int, resPr string) *Worker {
	return &Worker{settings: s, marker: marker, storage: strg, queue: q, passes: passes, resultPrefix: resPr}
}

// StartWorker reads tasks until the queue is closed or ctx is done.
// results must be drained by the caller (Pool.Run buffers it for every task).
func (w *Worker) StartWorker(ctx context.Context, results chan<- Result) {
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-w.queue:
			if !ok {
				return
			}
			// отмена между задачами: взятая задача не начинается, Pool.Run отметит её как прерванную
			if ctx.Err() != nil {
				return
			}
			res := w.processTask(ctx, task)
			if res.Err != nil {
				logger := mwlogger.LoggerFromContext(ctx)
				logger.Warn().Err(res.Err).Str("input", task.Input).Msg("Batch task failed")
			}
			// готовый результат отдаем всегда, даже если ctx уже отменен
			results <- res
		}
	}
}

func (w *Worker) processTask(ctx context.Context, task Task) Result {
	res := Result{Task: task}

	if !imageproc.IsOpenable(task.Input) {
		res.Err = fmt.Errorf("%w: %q", model.ErrUnsupportedFormat, filepath.Ext(task.Input))
		return res
	}

	// открыть исходник
	img, err := imageproc.LoadLimit(task.Input, w.settings.MaxPixels)
	if err != nil {
		res.Err = err
		return res
	}

	// по умолчанию работаем с превью, как интерактивная сессия
	buf := img
	if !w.settings.SaveFullResolution {
		if buf, err = imageproc.MakePreview(img, w.settings.PreviewWidth); err != nil {
			res.Err = err
			return res
		}
	}

	// наложить ватермарк нужное количество раз
	for i := 0; i < w.passes; i++ {
		if buf, err = w.marker.Apply(buf); err != nil {
			res.Err = fmt.Errorf("watermark pass %d: %w", i+1, err)
			return res
		}
	}

	// сохранить на диск
	if res.SavedTo, err = imageproc.Save(buf, task.Output, w.settings.JPEGQuality); err != nil {
		res.Err = err
		return res
	}
	res.Width, res.Height = buf.Bounds().Dx(), buf.Bounds().Dy()

	if w.storage == nil {
		return res
	}

	// выгрузить в сторедж тем же форматом, что и на диск
	format, err := imageproc.FormatFromPath(res.SavedTo)
	if err != nil {
		res.Err = err
		return res
	}
	data, _, err := imageproc.Encode(buf, format, w.settings.JPEGQuality)
	if err != nil {
		res.Err = err
		return res
	}
	key := w.resultPrefix + filepath.Base(res.SavedTo)
	if err := storage.PutWithRetry(ctx, w.storage, w.putRetry, key, model.GetCType[format], data.Bytes()); err != nil {
		res.Err = fmt.Errorf("%w: put %q: %w", model.ErrCommon500, key, err)
		return res
	}
	res.Key = key

	return res
}

// Pool - параметры пакетного прогона
type Pool struct {
	Settings     model.Settings
	Marker       service.Watermarker
	Storage      service.ImageStorage
	Retry        retry.Strategy // ретрай выгрузки, нулевая = одна попытка
	Workers      int
	Passes       int
	ResultPrefix string
}

// Run processes all tasks with p.Workers workers and returns one result per task, in task order.
// Tasks left undone because ctx was cancelled get ctx.Err() as their error.
func (p Pool) Run(ctx context.Context, tasks []Task) []Result {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	queue := make(chan Task)
	results := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := NewWorkerInstance(p.Settings, p.Marker, p.Storage, queue, p.Passes, p.ResultPrefix)
			w.putRetry = p.Retry
			w.StartWorker(ctx, results)
		}()
	}

	go func() {
		defer close(queue)
		for _, t := range tasks {
			if ctx.Err() != nil {
				return
			}
			select {
			case queue <- t:
			case <-ctx.Done():
				return
			}
		}
	}()

	wg.Wait()
	close(results)

	order := make(map[string]int, len(tasks))
	for i, t := range tasks {
		order[t.Input] = i
	}
	out := make([]Result, 0, len(tasks))
	done := make(map[string]bool, len(tasks))
	for r := range results {
		out = append(out, r)
		done[r.Task.Input] = true
	}
	for _, t := range tasks {
		if done[t.Input] {
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out = append(out, Result{Task: t, Err: fmt.Errorf("not processed: %w", err)})
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].Task.Input] < order[out[j].Task.Input] })
	return out
}

// CollectTasks lists openable images in inputDir (not recursive).
// Results go to outputDir, or next to the sources when outputDir is empty.
func CollectTasks(inputDir, outputDir string) ([]Task, error) {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !imageproc.IsOpenable(e.Name()) || isResult(e.Name()) {
			continue
		}
		input := filepath.Join(inputDir, e.Name())
		tasks = append(tasks, Task{Input: input, Output: imageproc.WatermarkedPath(input, outputDir)})
	}
	if len(tasks) == 0 {
		log.Printf("No images found in %s", inputDir)
	}
	return tasks, nil
}

// результаты прошлых прогонов (photo_watermarked.jpg) повторно не обрабатываются
func isResult(name string) bool {
	return strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), imageproc.WatermarkedSuffix)
}
