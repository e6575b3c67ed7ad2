package renderer

import (
	"context"
	"runtime"
	"sync"

	"github.com/df07/go-polynomial-optics/pkg/config"
	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/loaders"
)

// BandTask represents a band rendering task for the worker pool
type BandTask struct {
	Ctx    context.Context
	Band   Band
	Pass   *passSetup
	TaskID int // For deterministic ordering
}

// BandResult contains the result from rendering a band
type BandResult struct {
	TaskID int
	Stats  RenderStats
	Error  error
}

// WorkerPool manages parallel band rendering. Every worker splats into its own film; the
// films are summed when a pass result is assembled.
type WorkerPool struct {
	taskQueue   chan BandTask
	resultQueue chan BandResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
}

// Worker handles individual band rendering tasks
type Worker struct {
	ID          int
	renderer    *bandRenderer
	taskQueue   chan BandTask
	resultQueue chan BandResult
	seed        int64
}

// NewWorkerPool creates a worker pool with the specified number of workers, each with a
// private film of the sensor size
func NewWorkerPool(source *loaders.ImageData, magnification float64, cfg config.Render, maxTasks int) *WorkerPool {
	numWorkers := cfg.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan BandTask, maxTasks),   // Buffer for all bands of a pass
		resultQueue: make(chan BandResult, maxTasks), // Buffer for all results of a pass
		numWorkers:  numWorkers,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			renderer:    newBandRenderer(source, magnification, cfg),
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
			seed:        cfg.Seed,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a band task to the worker pool
func (wp *WorkerPool) SubmitTask(task BandTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed band result
func (wp *WorkerPool) GetResult() (BandResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Composite sums the worker films. Call it only while no task is in flight.
func (wp *WorkerPool) Composite() *Film {
	film := wp.workers[0].renderer.film.Clone()
	for _, w := range wp.workers[1:] {
		film.Merge(w.renderer.film)
	}
	return film
}

// run is the main worker loop
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		result := BandResult{TaskID: task.TaskID}
		if err := task.Ctx.Err(); err != nil {
			result.Error = err
			w.resultQueue <- result
			continue
		}

		// The stream depends on (seed, pass, band) only, so the image does not depend on
		// which worker picks the band up
		random, err := core.NewDerivedRand(w.seed, task.Pass.index, task.Band.ID)
		if err != nil {
			result.Error = err
			w.resultQueue <- result
			continue
		}

		result.Stats, result.Error = w.renderer.renderBand(task.Pass, task.Band, random)
		w.resultQueue <- result
	}
}
